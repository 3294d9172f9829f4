package shell

import "strings"

// Batcher collects input lines into complete commands. A command is complete
// when every '{' outside a string literal has been closed and the buffer ends
// with ';'.
type Batcher struct {
	lines []string
	depth int
	inStr bool
	esc   bool
}

// Feed adds one line. When the buffered text forms a complete command it is
// returned with ready set, and the batcher is reset.
func (b *Batcher) Feed(line string) (string, bool) {
	b.scan(line)
	b.scan("\n")
	b.lines = append(b.lines, line)

	cmd := strings.TrimSpace(strings.Join(b.lines, "\n"))
	if cmd == "" {
		b.Reset()
		return "", false
	}
	if b.depth > 0 || b.inStr || !strings.HasSuffix(cmd, ";") {
		return "", false
	}
	b.Reset()
	return cmd, true
}

func (b *Batcher) scan(s string) {
	for _, r := range s {
		if b.inStr {
			switch {
			case b.esc:
				b.esc = false
			case r == '\\':
				b.esc = true
			case r == '"':
				b.inStr = false
			}
			continue
		}
		switch r {
		case '"':
			b.inStr = true
		case '{':
			b.depth++
		case '}':
			if b.depth > 0 {
				b.depth--
			}
		}
	}
}

// Pending reports whether a partial command is buffered.
func (b *Batcher) Pending() bool { return len(b.lines) > 0 }

func (b *Batcher) Reset() {
	b.lines = b.lines[:0]
	b.depth = 0
	b.inStr = false
	b.esc = false
}

package dtbwire

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tuannm99/ditabase/internal/alias/bx"
)

const (
	// MaxFrameSize limits memory usage on malformed/hostile input.
	MaxFrameSize = 8 << 20 // 8 MiB
)

// ReadFrame reads one frame: a big-endian uint32 length then that many bytes
// of JSON.
func ReadFrame(r io.Reader, v any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := bx.U32BE(hdr[:])
	if n == 0 {
		return fmt.Errorf("dtbwire: empty frame")
	}
	if n > MaxFrameSize {
		return fmt.Errorf("dtbwire: frame too large: %d > %d", n, MaxFrameSize)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("dtbwire: bad json: %w", err)
	}
	return nil
}

// WriteFrame writes v as one frame with a single Write call.
func WriteFrame(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("dtbwire: marshal: %w", err)
	}
	if len(b) > MaxFrameSize {
		return fmt.Errorf("dtbwire: json too large: %d > %d", len(b), MaxFrameSize)
	}

	frame := bx.AppendU32BE(make([]byte, 0, 4+len(b)), uint32(len(b)))
	frame = append(frame, b...)
	_, err = w.Write(frame)
	return err
}

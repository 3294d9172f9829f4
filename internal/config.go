package internal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "DITABASE"

type DitabaseConfig struct {
	Storage struct {
		Path      string `mapstructure:"path"`
		Extension string `mapstructure:"extension"`
	} `mapstructure:"storage"`

	Shell struct {
		Prompt      string `mapstructure:"prompt"`
		HistoryFile string `mapstructure:"history_file"`
	} `mapstructure:"shell"`

	Server struct {
		Addr string `mapstructure:"addr"`
		// Debug logs every request at debug level, whatever log.level says.
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"server"`

	Output struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"output"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SetDefaults registers every key so that env overrides and Unmarshal see it
// even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", "database.dtb")
	v.SetDefault("storage.extension", ".dtb")
	v.SetDefault("shell.prompt", "ditabase> ")
	v.SetDefault("shell.history_file", "")
	v.SetDefault("server.addr", "127.0.0.1:7070")
	v.SetDefault("server.debug", false)
	v.SetDefault("output.format", "text")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads the YAML file at path. An empty path means defaults plus
// DITABASE_* environment variables only.
func LoadConfig(path string) (*DitabaseConfig, error) {
	return LoadConfigWith(viper.New(), path)
}

// LoadConfigWith is LoadConfig on a caller-owned viper, so flags bound to v
// take part in the lookup.
func LoadConfigWith(v *viper.Viper, path string) (*DitabaseConfig, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg DitabaseConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Storage.Extension != "" && !strings.HasPrefix(cfg.Storage.Extension, ".") {
		cfg.Storage.Extension = "." + cfg.Storage.Extension
	}

	return &cfg, nil
}

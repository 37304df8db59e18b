// Package config loads the per-language build and run command templates.
// Built-in defaults are layered under an optional YAML file and environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Language identifiers with a dedicated configuration entry.
const (
	Python = "python"
	Cpp    = "cpp"
	Other  = "other"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// INCYTE_LANGUAGES_CPP_BUILD.
const EnvPrefix = "INCYTE"

// Language holds the command templates for one language. An empty Build
// marks an interpreted language.
type Language struct {
	Build string `mapstructure:"build" yaml:"build,omitempty"`
	Run   string `mapstructure:"run" yaml:"run,omitempty"`
}

// Config is the merged command table.
type Config struct {
	Languages map[string]Language `mapstructure:"languages" yaml:"languages"`
}

// Defaults returns the built-in command table.
func Defaults() Config {
	return Config{
		Languages: map[string]Language{
			Python: {
				Run: "python3 {src} < {input} > {output}",
			},
			Cpp: {
				Build: "g++ -std=c++17 -O2 -o {bin}",
				Run:   "{bin} < {input} > {output}",
			},
			Other: {},
		},
	}
}

// Lookup returns the entry for lang, or the zero Language.
func (c *Config) Lookup(lang string) Language {
	if c == nil || c.Languages == nil {
		return Language{}
	}

	return c.Languages[lang]
}

// Load merges the defaults with the config file at path and the
// environment. When path is empty, incyte.yaml is searched for in the
// working directory and in $HOME/.config/incyte; a missing file is not an
// error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()

	for name, lang := range Defaults().Languages {
		v.SetDefault(key(name, "build"), lang.Build)
		v.SetDefault(key(name, "run"), lang.Run)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("incyte")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "incyte"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

// Dump writes cfg as YAML. Map keys are emitted in sorted order.
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return enc.Close()
}

func key(lang, field string) string {
	return "languages." + lang + "." + field
}

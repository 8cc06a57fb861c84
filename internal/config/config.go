// Package config loads application configuration in layers: built-in
// defaults, then an optional YAML file, then CARDGENIE_* environment
// variables, then command-line flags. Later layers win.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables this app reads.
// Nesting uses a double underscore: CARDGENIE_SESSION__MAX_NEW_CARDS.
const envPrefix = "CARDGENIE_"

// Session holds the study-session defaults applied when a request does
// not override them.
type Session struct {
	Mode           string `koanf:"mode" validate:"oneof=dueonly newonly mixed"`
	MaxNewCards    int    `koanf:"max_new_cards" validate:"gte=0"`
	MaxReviewCards int    `koanf:"max_review_cards" validate:"gte=0"`
}

// Scheduler holds scheduling-algorithm knobs.
type Scheduler struct {
	DisableFuzz bool `koanf:"disable_fuzz"`
}

// Config is the full application configuration.
type Config struct {
	DBPath     string    `koanf:"db_path" validate:"required"`
	ListenAddr string    `koanf:"listen_addr" validate:"required,hostname_port"`
	ReposDir   string    `koanf:"repos_dir" validate:"required"`
	Session    Session   `koanf:"session"`
	Scheduler  Scheduler `koanf:"scheduler"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:     "cardgenie.db",
		ListenAddr: "localhost:8080",
		ReposDir:   "repos",
		Session: Session{
			Mode:           "mixed",
			MaxNewCards:    20,
			MaxReviewCards: 200,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty, required to exist otherwise), the
// environment and the given flag set. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config: loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("config: loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Session.Mode = strings.ToLower(cfg.Session.Mode)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validation: %w", err)
	}
	return cfg, nil
}

// LoadOrExit is Load for main: on failure it prints the error and exits.
func LoadOrExit(path string, flags *pflag.FlagSet) Config {
	cfg, err := Load(path, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

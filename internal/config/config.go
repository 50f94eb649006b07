// Package config resolves server runtime settings from, in increasing
// priority: built-in defaults, an optional YAML file, VF_* environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VF"

type Server struct {
	Addr               string `mapstructure:"addr"`
	WorldID            string `mapstructure:"world"`
	DataDir            string `mapstructure:"data"`
	ConfigsDir         string `mapstructure:"configs"`
	TuningPath         string `mapstructure:"tuning"`
	LogLevel           string `mapstructure:"log_level"`
	LogFormat          string `mapstructure:"log_format"` // "console" or "json"
	DisableDB          bool   `mapstructure:"disable_db"`
	SnapshotPath       string `mapstructure:"snapshot"`
	LoadLatestSnapshot bool   `mapstructure:"load_latest_snapshot"`
	SeedLayout         bool   `mapstructure:"seed_layout"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"addr":                 "addr",
	"world":                "world",
	"data":                 "data",
	"configs":              "configs",
	"tuning":               "tuning",
	"log-level":            "log_level",
	"log-format":           "log_format",
	"disable-db":           "disable_db",
	"snapshot":             "snapshot",
	"load-latest-snapshot": "load_latest_snapshot",
	"seed-layout":          "seed_layout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("world", "world_1")
	v.SetDefault("data", "./data")
	v.SetDefault("configs", "./configs")
	v.SetDefault("tuning", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("disable_db", false)
	v.SetDefault("snapshot", "")
	v.SetDefault("load_latest_snapshot", true)
	v.SetDefault("seed_layout", true)
}

// NewFlagSet declares the server flags. Defaults live in viper, so flags only
// override when set explicitly.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "server config file (yaml)")
	fs.String("addr", ":8080", "http listen address")
	fs.String("world", "world_1", "world id")
	fs.String("data", "./data", "runtime data directory")
	fs.String("configs", "./configs", "catalog and tuning directory")
	fs.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.String("log-level", "info", "trace, debug, info, warn or error")
	fs.String("log-format", "console", "console or json")
	fs.Bool("disable-db", false, "disable the sqlite index")
	fs.String("snapshot", "", "snapshot to load at startup")
	fs.Bool("load-latest-snapshot", true, "load the newest snapshot from the data dir when --snapshot is empty")
	fs.Bool("seed-layout", true, "apply layout.json when starting without a snapshot")
	return fs
}

// Load parses args and resolves the effective settings.
func Load(args []string) (Server, error) {
	fs := NewFlagSet("server")
	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}
	return FromFlags(fs)
}

func FromFlags(fs *pflag.FlagSet) (Server, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Server{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	path, _ := fs.GetString("config")
	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Server
	if err := v.Unmarshal(&s); err != nil {
		return Server{}, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Server{}, err
	}
	return s, nil
}

func (s Server) Validate() error {
	if s.Addr == "" {
		return errors.New("addr is required")
	}
	if s.WorldID == "" {
		return errors.New("world is required")
	}
	if s.DataDir == "" || s.ConfigsDir == "" {
		return errors.New("data and configs directories are required")
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", s.LogFormat)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/mgomes/bscript/bscript"
)

// fileConfig is the YAML document accepted by --config.
type fileConfig struct {
	RecursionLimit int            `yaml:"recursion_limit"`
	Timeout        string         `yaml:"timeout"`
	LogLevel       string         `yaml:"log_level"`
	Globals        map[string]any `yaml:"globals"`
}

// runOptions is the merged view of the config file and command-line flags.
type runOptions struct {
	RecursionLimit int
	Timeout        time.Duration
	LogLevel       slog.Level
	Globals        map[string]bscript.Value
}

func loadConfig(path string) (*fileConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var cfg fileConfig
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	return &cfg, nil
}

// resolveOptions reads --config when given and lets explicit flags override
// the file.
func resolveOptions(cmd *cli.Command) (*runOptions, error) {
	cfg := &fileConfig{}
	if path := cmd.String("config"); path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	opts := &runOptions{RecursionLimit: cfg.RecursionLimit, LogLevel: slog.LevelWarn}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("config: invalid timeout %q: %w", cfg.Timeout, err)
		}
		opts.Timeout = d
	}
	if cfg.LogLevel != "" {
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		opts.LogLevel = level
	}
	globals, err := convertGlobals(cfg.Globals)
	if err != nil {
		return nil, err
	}
	opts.Globals = globals

	if cmd.IsSet("recursion-limit") {
		opts.RecursionLimit = cmd.Int("recursion-limit")
	}
	if cmd.IsSet("timeout") {
		opts.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("log-level") {
		level, err := parseLevel(cmd.String("log-level"))
		if err != nil {
			return nil, err
		}
		opts.LogLevel = level
	}
	if opts.RecursionLimit < 0 {
		return nil, fmt.Errorf("recursion limit must not be negative, got %d", opts.RecursionLimit)
	}
	return opts, nil
}

func convertGlobals(raw map[string]any) (map[string]bscript.Value, error) {
	out := make(map[string]bscript.Value, len(raw))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := toValue(raw[name])
		if err != nil {
			return nil, fmt.Errorf("config: global %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// toValue maps decoded YAML scalars and sequences onto script values.
func toValue(raw any) (bscript.Value, error) {
	switch v := raw.(type) {
	case nil:
		return bscript.NewVoid(), nil
	case bool:
		return bscript.NewBool(v), nil
	case int:
		return bscript.NewNumeric(float64(v)), nil
	case float64:
		return bscript.NewNumeric(v), nil
	case string:
		return bscript.NewString(v), nil
	case []any:
		elems := make([]bscript.Value, len(v))
		for i, item := range v {
			elem, err := toValue(item)
			if err != nil {
				return bscript.NewVoid(), fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = elem
		}
		return bscript.NewArray(elems), nil
	default:
		return bscript.NewVoid(), fmt.Errorf("unsupported value of type %T", raw)
	}
}

func (o *runOptions) newEngine(stdout, logs io.Writer) *bscript.Engine {
	return bscript.NewEngine(bscript.Config{
		RecursionLimit: o.RecursionLimit,
		LogHandler:     newLogHandler(logs, o.LogLevel),
		Stdout:         stdout,
		Builtins:       true,
	})
}

// newTable returns a table preloaded with the configured globals.
func (o *runOptions) newTable(engine *bscript.Engine) (*bscript.SymbolTable, error) {
	table := engine.NewTable()
	for name, v := range o.Globals {
		if err := table.Set(name, v.Copy(), false); err != nil {
			return nil, fmt.Errorf("bind global %q: %w", name, err)
		}
	}
	return table, nil
}

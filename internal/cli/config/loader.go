package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/erdgen/compiler/gen"
	"github.com/syssam/erdgen/dialect"
)

// EnvPrefix prefixes the environment variables read by the loader.
const EnvPrefix = "ERDGEN_"

// configKey and loggerKey are used to store values in the command context.
type (
	configKey struct{}
	loggerKey struct{}
)

// flagKeys maps flags whose name differs from their config key.
var flagKeys = map[string]string{
	"driver": "database.driver",
	"dsn":    "database.dsn",
	"rows":   "seed_rows",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > erdgen.yaml > erdgen.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"erdgen.yaml", "erdgen.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// It returns the config file used, if any.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	// 3. Environment: ERDGEN_SEED_ROWS -> seed_rows, ERDGEN_DATABASE_DSN -> database.dsn
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if rest, ok := strings.CutPrefix(key, "database_"); ok {
			return "database." + rest
		}
		return key
	}), nil); err != nil {
		return nil, "", fmt.Errorf("load env vars: %w", err)
	}

	// 4. Explicitly set flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.DSN = expandEnvVars(cfg.Database.DSN)
	// Paths of a config file are relative to its directory.
	if used != "" {
		base := filepath.Dir(used)
		cfg.Input = resolvePathRelativeTo(cfg.Input, base, flags, "input")
		cfg.Output = resolvePathRelativeTo(cfg.Output, base, flags, "output")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// Validate checks the values that do not depend on the command.
func (c *Config) Validate() error {
	if c.SeedRows < 0 {
		return fmt.Errorf("seed_rows must not be negative, got %d", c.SeedRows)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := gen.ParseArtifacts(c.Artifacts); err != nil {
		return err
	}
	if _, err := dialect.Parse(c.Database.Driver); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// resolvePathRelativeTo resolves a path relative to baseDir unless it is
// empty, absolute, or was given on the command line.
func resolvePathRelativeTo(path, baseDir string, flags *pflag.FlagSet, flag string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if flags != nil && flags.Changed(flag) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unknown variables are kept as is.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// NewContext returns a context carrying cfg and l.
func NewContext(ctx context.Context, cfg *Config, l *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey{}, cfg)
	return context.WithValue(ctx, loggerKey{}, l)
}

// Get retrieves the config from the command context.
func Get(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

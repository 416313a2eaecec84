package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// PackageEntry is one framework package entry point, relative to
// PackagesRoot. Name overrides the package name derived from the path.
type PackageEntry struct {
	Entry string `mapstructure:"entry"`
	Name  string `mapstructure:"name"`
}

type ParseConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	Cache       bool `mapstructure:"cache"`
}

type IndexConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	ProjectRoot        string         `mapstructure:"project_root"`
	PackagesRoot       string         `mapstructure:"packages_root"`
	Packages           []PackageEntry `mapstructure:"packages"`
	OutputPath         string         `mapstructure:"output_path"`
	BasePath           string         `mapstructure:"base_path"`
	PackageContentFile string         `mapstructure:"package_content_file"`
	Parse              ParseConfig    `mapstructure:"parse"`
	Index              IndexConfig    `mapstructure:"index"`
}

// DefaultPackages lists the entry points of the published NestJS packages.
var DefaultPackages = []string{
	"common/index.ts",
	"core/index.ts",
	"microservices/index.ts",
	"websockets/index.ts",
	"testing/index.ts",
	"platform-express/index.ts",
	"platform-fastify/index.ts",
	"platform-socket.io/index.ts",
	"platform-ws/index.ts",
}

// PackagesDir returns the absolute directory holding the package sources.
func (c *Config) PackagesDir() string {
	if filepath.IsAbs(c.PackagesRoot) {
		return c.PackagesRoot
	}
	return filepath.Join(c.ProjectRoot, c.PackagesRoot)
}

// OutputDir returns the directory generated files are written to.
func (c *Config) OutputDir() string {
	if filepath.IsAbs(c.OutputPath) {
		return c.OutputPath
	}
	return filepath.Join(c.ProjectRoot, c.OutputPath)
}

// EntryPoints returns the slash-separated entry paths relative to PackagesDir.
func (c *Config) EntryPoints() []string {
	out := make([]string, 0, len(c.Packages))
	for _, p := range c.Packages {
		out = append(out, path.Clean(filepath.ToSlash(p.Entry)))
	}
	return out
}

// cacheBase returns the base cache directory for nestdoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/nestdoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "nestdoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "nestdoc")
	}
	return filepath.Join(os.TempDir(), "nestdoc")
}

// DBPath returns the path to the DuckDB index file.
func DBPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

// CASDir returns the path to the content-addressable storage directory.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// LogPath returns the path to the log file used by long-running commands.
func LogPath() string {
	return filepath.Join(cacheBase(), "nestdoc.log")
}

// InitializeViper registers config search paths, defaults and the
// environment binding. file, when set, is read instead of searching.
func InitializeViper(file string) error {
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("nestdoc")
		viper.SetConfigType("toml")

		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "nestdoc"))
		} else if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "nestdoc"))
		}
	}

	viper.SetDefault("project_root", ".")
	viper.SetDefault("packages_root", "packages")
	viper.SetDefault("packages", DefaultPackages)
	viper.SetDefault("output_path", "src/generated/docs/api")
	viper.SetDefault("base_path", "api")
	viper.SetDefault("package_content_file", "PACKAGE.md")
	viper.SetDefault("parse.concurrency", 8)
	viper.SetDefault("parse.cache", true)
	viper.SetDefault("index.enabled", false)

	viper.SetEnvPrefix("NESTDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToPackageEntryHookFunc lets a package be listed as a bare entry path.
func stringToPackageEntryHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(PackageEntry{}) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return PackageEntry{Entry: data.(string)}, nil
		}
		return data, nil
	}
}

// Load reads the configuration. file may be empty to use the search path.
func Load(file string) (*Config, error) {
	if err := InitializeViper(file); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}

func decode(settings map[string]interface{}) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToPackageEntryHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if len(c.Packages) == 0 {
		return fmt.Errorf("no packages configured")
	}
	seen := make(map[string]bool, len(c.Packages))
	for _, p := range c.Packages {
		if p.Entry == "" {
			return fmt.Errorf("package entry without a path")
		}
		if seen[p.Entry] {
			return fmt.Errorf("package %s listed twice", p.Entry)
		}
		seen[p.Entry] = true
	}
	if c.Parse.Concurrency <= 0 {
		c.Parse.Concurrency = 1
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
	return nil
}

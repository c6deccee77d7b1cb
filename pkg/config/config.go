// config is the package containing configuration for promotectl,
// shared so it can be used by the pipeline as well as the command
// line.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
)

const (
	ConfigName           = ".promote"
	ConfigType           = "yaml"
	EnvPrefix            = "PROMOTE"
	PromoteConfigVersion = "v1"

	DefaultSourceEnvironment = "dev"
	DefaultIdentityKey       = "name"
	DefaultPathSeparator     = "//"
	DefaultFormat            = "yaml"
	DefaultGitTimeout        = 30 * time.Second
)

// DefaultEnvironments are the environments a change is promoted
// through, in order.
var DefaultEnvironments = []string{"dev", "sit", "uat"}

type Config struct {
	// This is expected to be present in a config file (and will not
	// correspond to a flag). The value determines how the config file
	// is interpreted: for now, if it is not equal to
	// PromoteConfigVersion above, it is considered an invalid
	// configuration.
	ConfigVersion string `mapstructure:"promoteConfigVersion"`

	LogFormat   string `mapstructure:"logFormat"`
	Verbose     bool   `mapstructure:"verbose"`
	MetricsFile string `mapstructure:"metricsFile"`

	Environments      []string `mapstructure:"environments"`
	SourceEnvironment string   `mapstructure:"sourceEnvironment"`
	PathSeparator     string   `mapstructure:"pathSeparator"`

	IdentityKey string   `mapstructure:"identityKey"`
	Format      string   `mapstructure:"format"`
	Recursive   bool     `mapstructure:"recursive"`
	Sops        bool     `mapstructure:"sops"`
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`

	GitTimeout time.Duration `mapstructure:"gitTimeout"`

	// Overrides holds settings for individual environments, which
	// take precedence over the settings above.
	Overrides map[string]Environment `mapstructure:"overrides"`
}

// Environment is the settings used when reading and writing the
// values of one environment.
type Environment struct {
	IdentityKey string   `mapstructure:"identityKey"`
	Format      string   `mapstructure:"format"`
	Recursive   bool     `mapstructure:"recursive"`
	Sops        bool     `mapstructure:"sops"`
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	// Values is the directory holding the environment's values files.
	Values string `mapstructure:"values"`
	// Output is where patched values are written.
	Output string `mapstructure:"output"`
}

// Default is the configuration used when there's no config file and
// no flags.
func Default() Config {
	return Config{
		ConfigVersion:     PromoteConfigVersion,
		LogFormat:         "fmt",
		Environments:      DefaultEnvironments,
		SourceEnvironment: DefaultSourceEnvironment,
		PathSeparator:     DefaultPathSeparator,
		IdentityKey:       DefaultIdentityKey,
		Format:            DefaultFormat,
		GitTimeout:        DefaultGitTimeout,
	}
}

func (c Config) IsValid() error {
	if c.ConfigVersion != PromoteConfigVersion {
		return fmt.Errorf("config file is expected to include `promoteConfigVersion: %s` to mark it as a promote config", PromoteConfigVersion)
	}
	if len(c.Environments) == 0 {
		return errors.New("at least one environment must be configured")
	}
	seen := map[string]bool{}
	for _, env := range c.Environments {
		if env == "" {
			return errors.New("environment names must not be empty")
		}
		if seen[env] {
			return fmt.Errorf("environment %q is listed more than once", env)
		}
		seen[env] = true
	}
	if c.SourceEnvironment != "" && !seen[c.SourceEnvironment] {
		return fmt.Errorf("source environment %q is not one of the environments %s", c.SourceEnvironment, strings.Join(c.Environments, ", "))
	}
	for env := range c.Overrides {
		if !seen[env] {
			return fmt.Errorf("overrides given for unknown environment %q", env)
		}
	}
	if c.PathSeparator == "" {
		return errors.New("path separator must not be empty")
	}
	if strings.ContainsAny(c.PathSeparator, "[]") {
		return fmt.Errorf("path separator %q must not contain brackets", c.PathSeparator)
	}
	if err := validFormat(c.Format); err != nil {
		return err
	}
	for env, o := range c.Overrides {
		if o.Format != "" {
			if err := validFormat(o.Format); err != nil {
				return errors.Wrapf(err, "overrides for %s", env)
			}
		}
	}
	switch c.LogFormat {
	case "", "fmt", "json":
	default:
		return fmt.Errorf("unknown log format %q, expected fmt or json", c.LogFormat)
	}
	return nil
}

func validFormat(format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q, expected yaml or json", format)
}

// ForEnvironment returns the settings for env: the global settings,
// with any overrides for env merged over them. An override can switch
// a boolean setting on, but not off.
func (c Config) ForEnvironment(env string) (Environment, error) {
	settings := Environment{
		IdentityKey: c.IdentityKey,
		Format:      c.Format,
		Recursive:   c.Recursive,
		Sops:        c.Sops,
		Include:     c.Include,
		Exclude:     c.Exclude,
	}
	override, ok := c.Overrides[env]
	if !ok {
		return settings, nil
	}
	if err := mergo.Merge(&settings, override, mergo.WithOverride); err != nil {
		return Environment{}, errors.Wrapf(err, "merging overrides for %s", env)
	}
	if strings.Contains(settings.Values, "{env}") {
		settings.Values = ExpandEnv(settings.Values, env)
	}
	return settings, nil
}

// ExpandEnv replaces `{env}` in a path with the environment name.
func ExpandEnv(path, env string) string {
	return strings.Replace(path, "{env}", env, -1)
}

// Later returns the environments after the source environment, that
// is, those that changes are promoted to.
func (c Config) Later() []string {
	for i, env := range c.Environments {
		if env == c.SourceEnvironment {
			return append([]string(nil), c.Environments[i+1:]...)
		}
	}
	return append([]string(nil), c.Environments...)
}

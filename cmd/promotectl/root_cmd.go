package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxcd/promote/pkg/config"
	"github.com/fluxcd/promote/pkg/manifests"
	"github.com/fluxcd/promote/pkg/pattern"
	"github.com/fluxcd/promote/pkg/releasenote"
)

type rootOpts struct {
	configFile string

	viper  *viper.Viper
	Config config.Config
	Logger log.Logger
}

func newRoot() *rootOpts {
	return &rootOpts{
		viper:  viper.New(),
		Config: config.Default(),
		Logger: log.NewNopLogger(),
	}
}

var rootLongHelp = strings.TrimSpace(`
promotectl carries configuration changes from one environment to the next.

Workflow:
  promotectl diff --values dev/ --previous prev/ --release-note notes.xlsx # What changed in dev?
  promotectl envs --release-note notes.xlsx                                # Which environments are filled in?
  promotectl apply --values envs/{env}/ --release-note notes.xlsx          # Promote to each of them.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "promotectl",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		fmt.Sprintf("config file; by default %s.%s in the working directory is used, if present", config.ConfigName, config.ConfigType))
	defineConfigFlags(cmd.PersistentFlags(), opts.viper, func(err error) {
		panic(err)
	})

	cmd.AddCommand(
		newDiff(opts).Command(),
		newApply(opts).Command(),
		newEnvs(opts).Command(),
		newServices(opts).Command(),
		newDelta(opts).Command(),
		newSnapshot(opts).Command(),
		newVersionCommand(),
	)
	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	v := opts.viper
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	fromFile := false
	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
	} else {
		v.SetConfigName(config.ConfigName)
		v.SetConfigType(config.ConfigType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || opts.configFile != "" {
			return errors.Wrap(err, "reading config file")
		}
	} else {
		fromFile = true
	}

	cfg := config.Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Wrap(err, "decoding configuration")
	}
	if !fromFile {
		cfg.ConfigVersion = config.PromoteConfigVersion
	}
	if err := cfg.IsValid(); err != nil {
		return newUsageError(err.Error())
	}
	opts.Config = cfg
	opts.Logger = newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	if fromFile {
		level.Debug(opts.Logger).Log("config", v.ConfigFileUsed())
	}
	return nil
}

func newLogger(out io.Writer, format string, verbose bool) log.Logger {
	var logger log.Logger
	switch format {
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(out))
	default:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(out))
	}
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	return logger
}

// loadOptions are the loader settings for an environment.
func (opts *rootOpts) loadOptions(env config.Environment) (manifests.Options, error) {
	filter, err := pattern.NewMatcher(env.Include, env.Exclude)
	if err != nil {
		return manifests.Options{}, newUsageError(err.Error())
	}
	return manifests.Options{
		Recursive: env.Recursive,
		Sops:      env.Sops,
		Filter:    filter,
	}, nil
}

func (opts *rootOpts) global() config.Environment {
	env, _ := opts.Config.ForEnvironment("")
	return env
}

// readyEnvironments lists the sheets of a release note with values
// filled in, for environments after the source environment.
func (opts *rootOpts) readyEnvironments(m releasenote.Medium) ([]string, error) {
	populated, err := releasenote.PopulatedSheets(m, opts.Config.SourceEnvironment)
	if err != nil {
		return nil, err
	}
	later := map[string]bool{}
	for _, env := range opts.Config.Later() {
		later[env] = true
	}
	var ready []string
	for _, env := range populated {
		if later[env] {
			ready = append(ready, env)
		} else {
			level.Warn(opts.Logger).Log("sheet", env, "msg", "values filled in, but not an environment after "+opts.Config.SourceEnvironment)
		}
	}
	return ready, nil
}

func (opts *rootOpts) warnAll(diagnostics []error) {
	for _, d := range diagnostics {
		level.Warn(opts.Logger).Log("err", d)
	}
}

func (opts *rootOpts) logError(err error) {
	level.Error(opts.Logger).Log("err", err)
}

// writeMetrics saves the metrics gathered during the run, if asked to.
func (opts *rootOpts) writeMetrics() error {
	if opts.Config.MetricsFile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(opts.Config.MetricsFile, prometheus.DefaultGatherer)
}

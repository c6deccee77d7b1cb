package main

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fluxcd/promote/pkg/config"
)

// defineConfigFlags defines the flags that can also be set in
// a config file. These need special treatment, because some care must
// be taken to match them ("bind") with config file field names.
func defineConfigFlags(fs *pflag.FlagSet, v *viper.Viper, bail func(error)) {

	bind := func(fieldName, flagName string) error {
		configStruct := reflect.TypeOf(config.Config{})
		field, ok := configStruct.FieldByName(fieldName)
		if !ok {
			return fmt.Errorf("attempt to bind a flag to a field not present in config.Config, %q", fieldName)
		}
		tag := field.Tag
		// this parallels the logic in
		// github.com/mitchellh/mapstructure, except that we want to
		// bail if a field is mentioned that is marked ignore, like
		// this: `mapstructure:"-"`
		mappedName := field.Name
		mapstructureTagParts := strings.Split(tag.Get("mapstructure"), ",")
		if namePart := mapstructureTagParts[0]; namePart != "" {
			if namePart == "-" { // means ignore this field
				return fmt.Errorf(`attempt to bind a flag to a config field tagged as ignored, %q`, field.Name)
			}
			mappedName = namePart
		}
		return v.BindPFlag(mappedName, fs.Lookup(flagName))
	}

	bindOrBail := func(fieldName, flagName string) {
		if err := bind(fieldName, flagName); err != nil {
			bail(err)
		}
	}

	defineString := func(fieldName, flagName, def, desc string) {
		fs.String(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineStringSlice := func(fieldName, flagName string, def []string, desc string) {
		fs.StringSlice(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineBool := func(fieldName, flagName string, def bool, desc string) {
		fs.Bool(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineBoolP := func(fieldName, flagName, short string, def bool, desc string) {
		fs.BoolP(flagName, short, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineDuration := func(fieldName, flagName string, def time.Duration, desc string) {
		fs.Duration(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defaults := config.Default()

	defineString("LogFormat", "log-format", defaults.LogFormat, "change the log format (fmt or json)")
	defineBoolP("Verbose", "verbose", "v", false, "log each change record as it is applied")
	defineString("MetricsFile", "metrics-file", "", "write metrics to this file, in the node-exporter textfile format, on exit")

	defineStringSlice("Environments", "environments", defaults.Environments, "the environments changes are promoted through, in order")
	defineString("SourceEnvironment", "source-env", defaults.SourceEnvironment, "the environment changes are promoted from")
	defineString("PathSeparator", "path-separator", defaults.PathSeparator, "separator between the keys of a nested path in the release note")

	defineString("IdentityKey", "identity-key", defaults.IdentityKey, "field that identifies the items of a list of maps")
	defineString("Format", "format", defaults.Format, "format of values files written (yaml or json)")
	defineBool("Recursive", "recursive", false, "include values files in subdirectories")
	defineBool("Sops", "sops", false, "decrypt SOPS-encrypted values files. Provide decryption keys in the same way you would provide them for the sops binary")
	defineStringSlice("Include", "include", nil, "only consider services matching these patterns (glob: by default, or regexp:)")
	defineStringSlice("Exclude", "exclude", nil, "ignore services matching these patterns")

	defineDuration("GitTimeout", "git-timeout", defaults.GitTimeout, "duration after which git operations time out")
}

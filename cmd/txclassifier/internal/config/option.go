package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/stellar/go/support/strutils"
)

// Options is a group of Options that can be for convenience
// initialized and set at the same time.
type Options []*Option

// Validate all the config options.
func (options Options) Validate() error {
	var errs []error
	for _, option := range options {
		if option.Validate == nil {
			continue
		}
		if err := option.Validate(option); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Option is a complete description of the configuration of a command line option
type Option struct {
	Name           string                             // e.g. "db-path"
	EnvVar         string                             // e.g. "DB_PATH". Disable with "-". Defaults to Name in constant case
	TomlKey        string                             // e.g. "DB_PATH". Disable with "-". Defaults to EnvVar
	Usage          string                             // Help text
	DefaultValue   interface{}                        // A default if no option is provided. Omit or set to `nil` if no default
	ConfigKey      interface{}                        // Pointer to the final key in the linked Config struct
	CustomSetValue func(*Option, interface{}) error   // Optional function for custom validation/transformation
	MarshalTOML    func(*Option) (interface{}, error) // Optional function to marshal the value back to toml
	Validate       func(*Option) error                // Function called after loading all options, to validate the configuration
	flag           *pflag.Flag                        // The persistent flag that the config option is attached to
}

// getEnvKey returns the environment variable of the option, or false when it
// cannot be set from the environment.
func (o Option) getEnvKey() (string, bool) {
	switch o.EnvVar {
	case "-", "_":
		return "", false
	case "":
		return strutils.KebabToConstantCase(o.Name), true
	default:
		return o.EnvVar, true
	}
}

func (o Option) getTomlKey() (string, bool) {
	switch o.TomlKey {
	case "-", "_":
		return "", false
	case "":
		if envKey, ok := o.getEnvKey(); ok {
			return envKey, ok
		}
		return strutils.KebabToConstantCase(o.Name), true
	default:
		return o.TomlKey, true
	}
}

// setValue sets the value of the option, picking a parser from the type of
// the config key unless the option brings its own.
func (o *Option) setValue(i interface{}) (err error) {
	if o.CustomSetValue != nil {
		return o.CustomSetValue(o, i)
	}
	// reflection in the parsers can panic on a mismatched config key
	defer func() {
		if recoverRes := recover(); recoverRes != nil {
			var ok bool
			if err, ok = recoverRes.(error); ok {
				return
			}
			err = fmt.Errorf("config option setting error ('%s') %v", o.Name, recoverRes)
		}
	}()
	parser := func(option *Option, i interface{}) error {
		return fmt.Errorf("no parser for flag %s", o.Name)
	}
	switch o.ConfigKey.(type) {
	case *bool:
		parser = parseBool
	case *uint, *uint8, *uint16, *uint64:
		parser = parseUint
	case *uint32:
		parser = parseUint32
	case *string:
		parser = parseString
	case *[]string:
		parser = parseStringSlice
	case *time.Duration:
		parser = parseDuration
	}
	return parser(o, i)
}

func (o *Option) marshalTOML() (interface{}, error) {
	if o.MarshalTOML != nil {
		return o.MarshalTOML(o)
	}
	// go-toml only knows the widest integer types
	switch v := o.ConfigKey.(type) {
	case *uint, *uint8, *uint16, *uint32, *uint64:
		return int64(reflect.ValueOf(v).Elem().Uint()), nil
	case *time.Duration:
		return v.String(), nil
	default:
		return reflect.ValueOf(o.ConfigKey).Elem().Interface(), nil
	}
}

func required(option *Option) error {
	value := reflect.ValueOf(option.ConfigKey).Elem()
	switch value.Kind() {
	case reflect.Slice:
		if value.Len() > 0 {
			return nil
		}
	default:
		if !value.IsZero() {
			return nil
		}
	}

	var waysToSet []string
	if option.Name != "" && option.Name != "-" {
		waysToSet = append(waysToSet, fmt.Sprintf("specify --%s on the command line", option.Name))
	}
	if envKey, ok := option.getEnvKey(); ok {
		waysToSet = append(waysToSet, fmt.Sprintf("set the %s environment variable", envKey))
	}
	if tomlKey, ok := option.getTomlKey(); ok {
		waysToSet = append(waysToSet, fmt.Sprintf("set %s in the config file", tomlKey))
	}

	advice := ""
	switch len(waysToSet) {
	case 0:
	case 1:
		advice = fmt.Sprintf(" Please %s.", waysToSet[0])
	default:
		last := len(waysToSet) - 1
		advice = fmt.Sprintf(" Please %s or %s.", strings.Join(waysToSet[:last], ", "), waysToSet[last])
	}
	return fmt.Errorf("%s is required.%s", option.Name, advice)
}

func positive(option *Option) error {
	switch v := option.ConfigKey.(type) {
	case *time.Duration:
		if *v <= 0 {
			return fmt.Errorf("%s must be positive", option.Name)
		}
	case *uint, *uint8, *uint16, *uint32, *uint64:
		if reflect.ValueOf(v).Elem().Uint() == 0 {
			return fmt.Errorf("%s must be positive", option.Name)
		}
	default:
		return fmt.Errorf("%s is not a number", option.Name)
	}
	return nil
}

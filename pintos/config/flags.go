// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"flag"
	"fmt"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "TOML file of flag values. Keys are flag names; flags given on the command line win.")

	// Machine flags.
	flagSet.String("rootfs", "", "host directory whose regular files are copied into the filesystem at boot.")
	flagSet.Int64("disk-size", 0, "filesystem capacity in bytes. 0 selects the default (8 MiB).")
	flagSet.Int("stack-pages", 0, "pages of user stack per process. 0 selects the default.")
	flagSet.Int("heap-pages", 0, "pages of user heap per process. 0 selects the default.")
	flagSet.Bool("raw-tty", false, "put a terminal on stdin in raw mode while processes run.")

	// Debugging flags.
	flagSet.String("log", "", "file path where internal debug information is written, default is stderr.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("debug-log", "", "additional location for logs. The following variables are available: %TIMESTAMP%, %COMMAND%, %PID%.")
	flagSet.Bool("alsologtostderr", false, "send log messages to stderr.")
	flagSet.Bool("metrics", false, "print kernel metrics in Prometheus format to stderr after the run.")

	// Debugging flags: strace related
	flagSet.Bool("strace", false, "enable strace.")
	flagSet.String("strace-syscalls", "", "comma-separated list of syscalls to trace. If --strace is true and this list is empty, then all syscalls will be traced.")
	flagSet.Uint("strace-log-size", 1024, "default size (in bytes) to log data argument blobs.")
}

// Get returns the value held by a flag registered with RegisterFlags.
func Get(v flag.Value) any {
	return v.(flag.Getter).Get()
}

// flagFields calls fn with the flag name and value of every Config field
// backed by a flag, in field order. It stops at the first error.
func (c *Config) flagFields(fn func(name string, field reflect.Value) error) error {
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		if err := fn(name, obj.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// lookup returns the named flag, which RegisterFlags must have defined.
func lookup(flagSet *flag.FlagSet, name string) *flag.Flag {
	fl := flagSet.Lookup(name)
	if fl == nil {
		panic(fmt.Sprintf("Flag %q not found", name))
	}
	return fl
}

// NewFromFlags creates a new Config with values coming from command line
// flags, completed by the file named by --config.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}
	conf.flagFields(func(name string, field reflect.Value) error {
		field.Set(reflect.ValueOf(Get(lookup(flagSet, name).Value)))
		return nil
	})

	if conf.ConfigFile != "" {
		if err := conf.loadFile(flagSet, conf.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// loadFile applies the settings of a TOML file to every flag that was not set
// explicitly.
func (c *Config) loadFile(flagSet *flag.FlagSet, path string) error {
	var settings map[string]any
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		return fmt.Errorf("error loading config file %q: %w", path, err)
	}

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	for name, value := range settings {
		if name == "config" {
			return fmt.Errorf("config file %q: %q cannot be set from a file", path, name)
		}
		if explicit[name] {
			continue
		}
		if err := c.set(flagSet, name, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("config file %q: %w", path, err)
		}
	}
	return nil
}

// set parses value with the flag's own rules, so a file setting means the
// same as it would on the command line, and stores it in the backing field.
func (c *Config) set(flagSet *flag.FlagSet, name string, value string) error {
	found := false
	err := c.flagFields(func(fieldName string, field reflect.Value) error {
		if fieldName != name {
			return nil
		}
		found = true
		fl := lookup(flagSet, name)
		if err := fl.Value.Set(value); err != nil {
			return fmt.Errorf("error setting flag %s=%q: %w", name, value, err)
		}
		field.Set(reflect.ValueOf(Get(fl.Value)))
		return nil
	})
	if err == nil && !found {
		err = fmt.Errorf("flag %q not found. Cannot set it to %q", name, value)
	}
	return err
}

// ToFlags returns the command line flags that reproduce c, omitting those
// left at their default.
func (c *Config) ToFlags() []string {
	defaults := flag.NewFlagSet("defaults", flag.ContinueOnError)
	RegisterFlags(defaults)

	var rv []string
	c.flagFields(func(name string, field reflect.Value) error {
		if val := getVal(field); val != lookup(defaults, name).DefValue {
			rv = append(rv, fmt.Sprintf("--%s=%s", name, val))
		}
		return nil
	})
	return rv
}

func getVal(field reflect.Value) string {
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}

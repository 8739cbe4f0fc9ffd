package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// GlobalSection is the table holding the global settings; every other
// table of the configuration files is a rule named after the table.
const GlobalSection = "udevbackup"

// FilePattern selects the configuration files inside the config directory
const FilePattern = "*.toml"

// DefaultDir is the default configuration directory
const DefaultDir = "/etc/udevbackup"

// Load merges every configuration file of dir (in lexical order) and builds
// the global Config and the registered rules. Table names are case
// insensitive and rule names are lower-cased.
func Load(fsys afero.Fs, dir string) (*Config, *RuleSet, error) {
	files, err := afero.Glob(fsys, filepath.Join(dir, FilePattern))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)

	v := viper.New()
	v.SetConfigType("toml")
	for _, file := range files {
		data, err := afero.ReadFile(fsys, file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, nil, fmt.Errorf("invalid configuration file %s: %w", file, err)
		}
	}

	cfg := Default()
	if err := v.UnmarshalKey(GlobalSection, cfg, decodeHook()); err != nil {
		return nil, nil, fmt.Errorf("invalid [%s] section: %w", GlobalSection, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid [%s] section: %w", GlobalSection, err)
	}

	names, err := ruleNames(v)
	if err != nil {
		return nil, nil, err
	}

	rules := NewRuleSet()
	for _, name := range names {
		var spec RuleSpec
		if err := v.UnmarshalKey(name, &spec, decodeHook()); err != nil {
			return nil, nil, fmt.Errorf("invalid [%s] section: %w", name, err)
		}
		rule, err := NewRule(name, spec, cfg.TempDirectory)
		if err != nil {
			return nil, nil, err
		}
		if err := rules.Register(rule); err != nil {
			return nil, nil, err
		}
	}

	return cfg, rules, nil
}

func ruleNames(v *viper.Viper) ([]string, error) {
	var names []string
	for key, value := range v.AllSettings() {
		if key == GlobalSection {
			continue
		}
		if _, ok := value.(map[string]interface{}); !ok {
			return nil, fmt.Errorf("unexpected top-level key %q: settings belong to [%s] or a rule section", key, GlobalSection)
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names, nil
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToFieldsHook,
	))
}

// stringToFieldsHook lets list settings be written as a single string,
// split like a shell command line, e.g. command = "bash -c 'set -e; run'".
func stringToFieldsHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string(nil)) {
		return data, nil
	}
	words, err := shellquote.Split(data.(string))
	if err != nil {
		return nil, fmt.Errorf("cannot split %q: %w", data, err)
	}
	return words, nil
}

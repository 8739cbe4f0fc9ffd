package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// RuleSpec is the on-disk form of a rule
type RuleSpec struct {
	FSUUID       string   `mapstructure:"fs_uuid"`
	LUKSUUID     string   `mapstructure:"luks_uuid"`
	Script       string   `mapstructure:"script"`
	PreScript    string   `mapstructure:"pre_script"`
	PostScript   string   `mapstructure:"post_script"`
	Command      []string `mapstructure:"command"`
	MountOptions []string `mapstructure:"mount_options"`
	User         string   `mapstructure:"user"`
}

// Rule binds one device to the scripts run when it is connected.
// LUKSName is the only field changed after construction.
type Rule struct {
	Name         string
	FSUUID       string
	LUKSUUID     string
	LUKSName     string
	Script       string
	PreScript    string
	PostScript   string
	Command      []string
	MountOptions []string
	User         string
	StdoutPath   string
	StderrPath   string
	MountPoint   string
}

// DefaultCommand interprets scripts when a rule sets no command
var DefaultCommand = []string{"bash"}

// NewRule validates spec and derives the capture and mount paths from name
// inside tempDir.
func NewRule(name string, spec RuleSpec, tempDir string) (*Rule, error) {
	if name == "" {
		return nil, errors.New("rule name is empty")
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("rule %q: name must not contain a path separator", name)
	}
	if spec.FSUUID == "" {
		return nil, fmt.Errorf("rule %q: fs_uuid is required", name)
	}
	if spec.Script == "" {
		return nil, fmt.Errorf("rule %q: script is required", name)
	}
	if spec.LUKSUUID != "" && spec.LUKSUUID == spec.FSUUID {
		return nil, fmt.Errorf("rule %q: luks_uuid must differ from fs_uuid", name)
	}

	command := spec.Command
	if len(command) == 0 {
		command = DefaultCommand
	}

	return &Rule{
		Name:         name,
		FSUUID:       spec.FSUUID,
		LUKSUUID:     spec.LUKSUUID,
		Script:       spec.Script,
		PreScript:    spec.PreScript,
		PostScript:   spec.PostScript,
		Command:      append([]string(nil), command...),
		MountOptions: append([]string(nil), spec.MountOptions...),
		User:         spec.User,
		StdoutPath:   filepath.Join(tempDir, name+".out.txt"),
		StderrPath:   filepath.Join(tempDir, name+".err.txt"),
		MountPoint:   filepath.Join(tempDir, name),
	}, nil
}

// Encrypted reports whether the rule's partition lives inside a LUKS container
func (r *Rule) Encrypted() bool {
	return r.LUKSUUID != ""
}

package config

import (
	"path/filepath"

	yaml "github.com/goccy/go-yaml"
)

// CfgPath is a path that is relative to the config file it came from
type CfgPath string

// UnmarshalBase is the directory of the config file being parsed. It is
// global because goccy/go-yaml gives unmarshalers no context.
var UnmarshalBase string

func (c *CfgPath) UnmarshalYAML(b []byte) error {
	var path string

	err := yaml.Unmarshal(b, &path)
	if err != nil {
		return err
	}

	if filepath.IsAbs(path) || path == "" {
		*c = CfgPath(path)
	} else {
		*c = CfgPath(filepath.Join(UnmarshalBase, path))
	}
	return nil
}

func (c CfgPath) String() string {
	return string(c)
}

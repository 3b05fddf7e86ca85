package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/pipeline"
)

// fileConfig is the optional file passed with --config, in TOML:
//
//	scale    = 0.5
//	offset_x = 10
//	width    = 1280
//	tree     = true
//	workers  = 8
//	output   = "out"
//
// or in YAML with the same keys when the file ends in .yaml or .yml.
// Every key is optional. Pointers tell unset keys apart from zero values.
type fileConfig struct {
	Scale   *float64 `toml:"scale" yaml:"scale"`
	OffsetX *float64 `toml:"offset_x" yaml:"offset_x"`
	OffsetY *float64 `toml:"offset_y" yaml:"offset_y"`
	Width   *float64 `toml:"width" yaml:"width"`
	Height  *float64 `toml:"height" yaml:"height"`
	Tree    *bool    `toml:"tree" yaml:"tree"`
	Workers *int     `toml:"workers" yaml:"workers"`
	Output  *string  `toml:"output" yaml:"output"`
}

// loadConfig decodes the config file at path. Unknown keys are an error
// so that typos do not silently fall back to defaults.
func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(path, data)
	}

	var cfg fileConfig
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return &cfg, nil
}

func decodeYAML(path string, data []byte) (*fileConfig, error) {
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return &cfg, nil
}

// apply copies file values into opts for every option whose flag was not
// set on the command line. Flags win over the file.
func (c *fileConfig) apply(opts *pipeline.Options, flags *pflag.FlagSet) {
	set := func(name string) bool { return flags != nil && flags.Changed(name) }

	if c.Scale != nil && !set("scale") {
		opts.Scale = *c.Scale
	}
	if c.OffsetX != nil && !set("offset-x") {
		opts.OffsetX = *c.OffsetX
	}
	if c.OffsetY != nil && !set("offset-y") {
		opts.OffsetY = *c.OffsetY
	}
	if c.Width != nil && !set("width") {
		opts.Width = *c.Width
	}
	if c.Height != nil && !set("height") {
		opts.Height = *c.Height
	}
	if c.Tree != nil && !set("tree") {
		opts.Tree = *c.Tree
	}
	if c.Workers != nil && !set("workers") {
		opts.Workers = *c.Workers
	}
	if c.Output != nil && !set("output") {
		opts.Output = *c.Output
	}
}

package engine

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/report"
	"github.com/heathj/htmllint/rules"
)

// Config is the content of a configuration file:
//
//	elements:
//	  - ./elements.yaml
//	rules:
//	  close-order: error
//	  deprecated: off
type Config struct {
	// Elements are element definition files loaded after the HTML5
	// elements, in order. Relative paths are resolved against Dir.
	Elements []string          `yaml:"elements"`
	Rules    map[string]string `yaml:"rules"`
	// Root disables the recommended rules, only Rules are run.
	Root bool `yaml:"root"`

	Dir string `yaml:"-"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes a configuration document. Unknown keys are errors.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// RuleConfig resolves the rule severities on top of the recommended rules.
func (c *Config) RuleConfig() (rules.Config, error) {
	base := rules.Recommended()
	if c.Root {
		base = rules.Config{}
	}
	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	overrides := rules.Config{}
	for _, name := range names {
		sev, err := report.ParseSeverity(c.Rules[name])
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s", name)
		}
		overrides[name] = sev
	}
	merged := base.Merge(overrides)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Table builds and initializes the element table: the HTML5 elements
// followed by every configured element file.
func (c *Config) Table(log *logrus.Entry) (*meta.Table, error) {
	table := meta.NewTable(meta.WithLogger(log))
	if err := table.LoadHTML5(); err != nil {
		return nil, err
	}
	for _, path := range c.Elements {
		if !filepath.IsAbs(path) && c.Dir != "" {
			path = filepath.Join(c.Dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading element definitions")
		}
		if err := table.LoadYAML(path, data); err != nil {
			return nil, err
		}
	}
	if err := table.Init(); err != nil {
		return nil, err
	}
	return table, nil
}

// Options returns the engine options applying the configuration.
func (c *Config) Options(log *logrus.Entry) ([]Option, error) {
	ruleConfig, err := c.RuleConfig()
	if err != nil {
		return nil, err
	}
	table, err := c.Table(log)
	if err != nil {
		return nil, err
	}
	return []Option{WithConfig(ruleConfig), WithTable(table), WithLogger(log)}, nil
}

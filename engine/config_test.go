package engine

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/report"
)

const customElements = `
x-card:
  flow: true
  permittedContent: ["@phrasing"]
  requiredAttributes: [heading]
x-wide-card:
  inherit: x-card
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "elements.yaml", customElements)
	path := writeFile(t, dir, ".htmllint.yaml", `
elements:
  - elements.yaml
rules:
  deprecated: error
  close-order: "off"
  void-content: 1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, []string{"elements.yaml"}, cfg.Elements)

	ruleConfig, err := cfg.RuleConfig()
	require.NoError(t, err)
	assert.Equal(t, report.Error, ruleConfig["deprecated"])
	assert.Equal(t, report.Off, ruleConfig["close-order"])
	assert.Equal(t, report.Warning, ruleConfig["void-content"])
	assert.Equal(t, report.Error, ruleConfig["element-permitted-content"])

	opts, err := cfg.Options(logrus.NewEntry(logrus.StandardLogger()))
	require.NoError(t, err)
	e, err := New(opts...)
	require.NoError(t, err)
	require.NotNil(t, e.Table().Get("x-wide-card"))
	assert.Equal(t, []string{"x-card", "x-wide-card"}, e.Table().TagsDerivedFrom("x-card"))

	rep, err := e.LintString("<x-wide-card><div></div></x-wide-card><p>a</i>", "inline.html")
	require.NoError(t, err)
	var got []string
	for _, m := range rep.Messages() {
		got = append(got, m.RuleID)
	}
	assert.Equal(t, []string{"element-required-attributes", "element-permitted-content"}, got)
}

func TestRootConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("root: true\nrules:\n  deprecated: warn\n"))
	require.NoError(t, err)
	ruleConfig, err := cfg.RuleConfig()
	require.NoError(t, err)
	assert.Len(t, ruleConfig, 1)
	assert.Equal(t, report.Warning, ruleConfig["deprecated"])
}

func TestConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("rulez: {}\n"))
	assert.Error(t, err, "unknown keys are rejected")

	cfg, err := ParseConfig([]byte("rules:\n  deprecated: fatal\n"))
	require.NoError(t, err)
	_, err = cfg.RuleConfig()
	assert.Error(t, err)

	cfg, err = ParseConfig([]byte("rules:\n  no-such-rule: error\n"))
	require.NoError(t, err)
	_, err = cfg.RuleConfig()
	assert.Error(t, err)

	_, err = LoadConfig("testdata/does-not-exist.yaml")
	assert.Error(t, err)

	cfg, err = ParseConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Elements)
}

func TestConfigMissingInherit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "elements.yaml", "x-card:\n  inherit: x-missing\n")
	cfg := &Config{Elements: []string{"elements.yaml"}, Dir: dir}

	_, err := cfg.Table(logrus.NewEntry(logrus.StandardLogger()))
	require.Error(t, err)
	var inheritErr *meta.InheritError
	assert.ErrorAs(t, err, &inheritErr)
	assert.Contains(t, err.Error(), "x-card")
	assert.Contains(t, err.Error(), "x-missing")
}

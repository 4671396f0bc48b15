package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  baseURL: http://localhost:9000
  timeout: 5s
  discountRate: 0.15
policy:
  minYear: 1990
  maskMinYear: 1990
  minDistinctYears: 0
ingest:
  delimiter: ";"
  header: false
server:
  address: ":9090"
  maxUploadSize: 1M
logging:
  level: debug
  format: console
output:
  format: csv
tables:
  - name: equipment
    title: Обладнання
    columns:
      - label: Назва
        key: name
        kind: text
      - label: Вартість
        key: price
        kind: numeric
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agriloss.yaml")
	writeFile(t, path, sampleConfig)

	conf, err := LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", conf.API.BaseURL)
	assert.Equal(t, 5*time.Second, conf.API.Timeout)
	assert.Equal(t, 0.15, conf.API.DiscountRate)
	assert.Equal(t, 1990, conf.Policy.MinYear)
	assert.Equal(t, 5, conf.Policy.YearsAhead, "unset keys keep their default")
	assert.Equal(t, 0, conf.Policy.MinDistinctYears)
	assert.False(t, conf.Ingest.Header)
	assert.Equal(t, ":9090", conf.Server.Address)
	assert.Equal(t, "1M", conf.Server.MaxUploadSize)
	assert.Equal(t, "debug", conf.Logging.Level)
	assert.Equal(t, "csv", conf.Output.Format)

	require.Len(t, conf.Tables, 1)
	assert.Equal(t, "equipment", conf.Tables[0].Name)
	assert.Equal(t, ingest.Column{Label: "Вартість", Key: "price", Kind: ingest.KindNumeric}, conf.Tables[0].Columns[1])
	assert.NoError(t, conf.Validate())
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("AGRILOSS_API_BASEURL", "https://forecast.example.com")
	t.Setenv("AGRILOSS_POLICY_MINYEAR", "2010")

	conf, err := LoadConfigurationFromReader(strings.NewReader("output:\n  format: json\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://forecast.example.com", conf.API.BaseURL)
	assert.Equal(t, 2010, conf.Policy.MinYear)
	assert.Equal(t, "json", conf.Output.Format)
}

func TestDefault(t *testing.T) {
	conf := Default()
	assert.Equal(t, "https://agriculture-losses-1llp.onrender.com", conf.API.BaseURL)
	assert.Equal(t, 60*time.Second, conf.API.Timeout)
	assert.Equal(t, 0.1, conf.API.DiscountRate)
	assert.Equal(t, 2000, conf.Policy.MinYear)
	assert.Equal(t, 1900, conf.Policy.MaskMinYear)
	assert.Equal(t, 2, conf.Policy.MinDistinctYears)
	assert.True(t, conf.Ingest.Header)
	assert.Equal(t, ":8080", conf.Server.Address)
	assert.Equal(t, "pretty", conf.Output.Format)
	assert.Equal(t, items.DefaultSchemas(), conf.Tables)
	assert.NoError(t, conf.Validate())
	assert.Empty(t, conf.validateWithFixedTime(testutil.FixedNow))

	policy := conf.FlowPolicy()
	assert.Equal(t, 2000, policy.Date.MinYear)
	assert.Equal(t, 5, policy.Date.YearsAhead)
	assert.Equal(t, 1900, policy.MaskMinYear)
}

func TestResolvePath(t *testing.T) {
	work := t.TempDir()
	xdgHome := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	t.Setenv("XDG_CONFIG_HOME", xdgHome)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	got, err := ResolvePath("explicit.yaml")
	require.NoError(t, err)
	assert.Equal(t, "explicit.yaml", got)

	got, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	xdgFile := filepath.Join(xdgHome, "agriloss", "config.yaml")
	writeFile(t, xdgFile, "output:\n  format: csv\n")
	got, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, xdgFile, got)

	conf, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "csv", conf.Output.Format)

	writeFile(t, filepath.Join(work, "agriloss.yaml"), "output:\n  format: json\n")
	got, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "agriloss.yaml", got)
}

func TestIngestOptions(t *testing.T) {
	tests := []struct {
		delimiter string
		expected  rune
		wantErr   bool
	}{
		{"", 0, false},
		{",", ',', false},
		{";", ';', false},
		{"tab", '\t', false},
		{"TAB", '\t', false},
		{"|", '|', false},
		{";;", 0, true},
		{`"`, 0, true},
	}

	for _, tt := range tests {
		conf := Default()
		conf.Ingest.Delimiter = tt.delimiter
		opts, err := conf.IngestOptions()
		if tt.wantErr {
			assert.Error(t, err, tt.delimiter)
			assert.Error(t, conf.Validate(), tt.delimiter)
			continue
		}
		require.NoError(t, err, tt.delimiter)
		assert.Equal(t, tt.expected, opts.Delimiter, tt.delimiter)
		assert.True(t, opts.Header)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"Bad output format", func(c *Configuration) { c.Output.Format = "xml" }},
		{"Negative discount rate", func(c *Configuration) { c.API.DiscountRate = -0.1 }},
		{"Duplicate tables", func(c *Configuration) { c.Tables = append(c.Tables, c.Tables[0]) }},
		{"Column without key", func(c *Configuration) {
			c.Tables = []items.Schema{{Name: "x", Columns: []ingest.Column{{Label: "A", Kind: ingest.KindText}}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Default()
			tt.mutate(conf)
			assert.Error(t, conf.Validate())
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	now := testutil.FixedNow
	conf := Default()
	conf.API.BaseURL = "localhost:9000"
	conf.API.Timeout = 0
	conf.API.DiscountRate = 0
	conf.Policy.MinYear = 2040
	conf.Policy.MaskMinYear = 2050
	conf.Policy.MinDistinctYears = 0

	warnings := conf.validateWithFixedTime(now)
	require.Len(t, warnings, 6)
	assert.Contains(t, warnings[0], "api.baseURL")
	assert.Contains(t, warnings[1], "api.timeout")
	assert.Contains(t, warnings[2], "api.discountRate")
	assert.Contains(t, warnings[3], "policy.minYear 2040")
	assert.Contains(t, warnings[4], "policy.maskMinYear 2050")
	assert.Contains(t, warnings[5], "policy.minDistinctYears")
}

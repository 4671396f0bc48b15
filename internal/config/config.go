// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/eugenekravchuk/agriculture-losses/internal/flows"
	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for agriloss.
type Configuration struct {
	API     APIConfig      `yaml:"api" mapstructure:"api"`
	Policy  PolicyConfig   `yaml:"policy" mapstructure:"policy"`
	Ingest  IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Tables  []items.Schema `yaml:"tables,omitempty" mapstructure:"tables"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
	Logging LoggingConfig  `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig   `yaml:"output,omitempty" mapstructure:"output"`
}

// APIConfig points at the prediction service.
type APIConfig struct {
	BaseURL      string        `yaml:"baseURL" mapstructure:"baseURL"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	DiscountRate float64       `yaml:"discountRate" mapstructure:"discountRate"`
}

// PolicyConfig holds the input validation rules.
type PolicyConfig struct {
	MinYear          int `yaml:"minYear" mapstructure:"minYear"`
	YearsAhead       int `yaml:"yearsAhead" mapstructure:"yearsAhead"`
	MaskMinYear      int `yaml:"maskMinYear" mapstructure:"maskMinYear"`
	MinDistinctYears int `yaml:"minDistinctYears" mapstructure:"minDistinctYears"` // 0 disables the rule
}

// IngestConfig controls how uploaded files are parsed.
type IngestConfig struct {
	Delimiter    string `yaml:"delimiter,omitempty" mapstructure:"delimiter"` // "", ",", ";", "tab"
	Header       bool   `yaml:"header" mapstructure:"header"`
	Sheet        string `yaml:"sheet,omitempty" mapstructure:"sheet"`
	FuzzyHeaders bool   `yaml:"fuzzyHeaders" mapstructure:"fuzzyHeaders"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address       string `yaml:"address" mapstructure:"address"`
	MaxUploadSize string `yaml:"maxUploadSize" mapstructure:"maxUploadSize"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// Default returns the configuration used when no file is found.
func Default() *Configuration {
	conf, err := decode(newViper(false))
	if err != nil {
		// Defaults always decode.
		panic(err)
	}
	return conf
}

func newViper(env bool) *viper.Viper {
	v := viper.New()
	v.SetDefault("api.baseURL", constants.DefaultAPIBaseURL)
	v.SetDefault("api.timeout", fmt.Sprintf("%ds", constants.DefaultAPITimeoutSeconds))
	v.SetDefault("api.discountRate", constants.DefaultDiscountRate)
	v.SetDefault("policy.minYear", constants.DefaultMinYear)
	v.SetDefault("policy.yearsAhead", constants.DefaultYearsAhead)
	v.SetDefault("policy.maskMinYear", constants.DefaultMaskMinYear)
	v.SetDefault("policy.minDistinctYears", constants.DefaultMinDistinctYears)
	v.SetDefault("ingest.delimiter", "")
	v.SetDefault("ingest.header", true)
	v.SetDefault("ingest.sheet", "")
	v.SetDefault("ingest.fuzzyHeaders", false)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", "256K")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	if env {
		v.SetEnvPrefix(constants.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	return v
}

// ResolvePath picks the configuration file to load: the given path, then
// agriloss.yaml in the working directory, then the XDG config directory. An
// empty result means none exists and defaults apply.
func ResolvePath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if _, err := os.Stat(constants.DefaultConfigFile); err == nil {
		return constants.DefaultConfigFile, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to check %s: %w", constants.DefaultConfigFile, err)
	}
	if found, err := xdg.SearchConfigFile(constants.XDGConfigFile); err == nil {
		return found, nil
	}
	return "", nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path falls back to ResolvePath and finally
// to defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	resolved, err := ResolvePath(configPath)
	if err != nil {
		return nil, err
	}

	v := newViper(true)
	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper(true)
	v.SetConfigType("yml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if len(configuration.Tables) == 0 {
		configuration.Tables = items.DefaultSchemas()
	}
	return &configuration, nil
}

// FlowPolicy converts the policy section for the cash-flow table.
func (c *Configuration) FlowPolicy() flows.Policy {
	return flows.Policy{
		Date: validation.DatePolicy{
			MinYear:    c.Policy.MinYear,
			YearsAhead: c.Policy.YearsAhead,
		},
		MaskMinYear:      c.Policy.MaskMinYear,
		MinDistinctYears: c.Policy.MinDistinctYears,
	}
}

// IngestOptions converts the ingest section for the ingest package.
func (c *Configuration) IngestOptions() (ingest.Options, error) {
	opts := ingest.Options{
		Header:       c.Ingest.Header,
		Sheet:        c.Ingest.Sheet,
		FuzzyHeaders: c.Ingest.FuzzyHeaders,
	}
	switch d := c.Ingest.Delimiter; strings.ToLower(d) {
	case "":
	case "tab", "\t":
		opts.Delimiter = '\t'
	default:
		runes := []rune(d)
		if len(runes) != 1 || runes[0] == '"' || runes[0] == '\n' || runes[0] == '\r' {
			return ingest.Options{}, fmt.Errorf("invalid ingest delimiter %q", d)
		}
		opts.Delimiter = runes[0]
	}
	return opts, nil
}

// Validate returns the first setting that makes the configuration unusable.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if _, err := c.IngestOptions(); err != nil {
		return err
	}
	if _, err := items.NewSet(c.Tables); err != nil {
		return err
	}
	if c.API.DiscountRate < 0 {
		return fmt.Errorf("discount rate must not be negative, got %v", c.API.DiscountRate)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	return c.validateWithFixedTime(time.Now())
}

func (c *Configuration) validateWithFixedTime(now time.Time) []string {
	var warnings []string

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		warnings = append(warnings, fmt.Sprintf("api.baseURL %q is not an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("api.timeout %s is not positive, the default of %ds applies", c.API.Timeout, constants.DefaultAPITimeoutSeconds))
	}
	if c.API.DiscountRate == 0 || c.API.DiscountRate > 1 {
		warnings = append(warnings, fmt.Sprintf("api.discountRate %v is outside (0, 1]", c.API.DiscountRate))
	}
	if maxYear := now.Year() + c.Policy.YearsAhead; c.Policy.MinYear > maxYear {
		warnings = append(warnings, fmt.Sprintf("policy.minYear %d is after the latest accepted year %d, no date can validate", c.Policy.MinYear, maxYear))
	}
	if c.Policy.MaskMinYear > c.Policy.MinYear {
		warnings = append(warnings, fmt.Sprintf("policy.maskMinYear %d is above policy.minYear %d, some valid years cannot be typed", c.Policy.MaskMinYear, c.Policy.MinYear))
	}
	if c.Policy.MinDistinctYears == 0 {
		warnings = append(warnings, "policy.minDistinctYears is 0, submissions spanning a single year are accepted")
	}
	return warnings
}

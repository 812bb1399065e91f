// Package config holds the scraper settings: defaults, overlaid by a YAML
// file, then by PEOWNERSHIP_* environment variables, then by flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	AppName = "peownership"

	DefaultBaseURL          = "https://en.wikipedia.org"
	DefaultRootCategoryURL  = "https://en.wikipedia.org/w/index.php?title=Category:Private_equity_portfolio_companies"
	DefaultJSONOutputPath   = "pe_database.json"
	DefaultCSVOutputPath    = "pe_companies.csv"
	DefaultDBPath           = "out/peownership.duckdb"
	DefaultDelay            = time.Second
	DefaultTimeout          = 30 * time.Second
	DefaultUserAgent        = "Mozilla/5.0 (compatible; peownership/1.0; +https://github.com/shanehull/peownership)"
	DefaultMaxCategoryPages = 10
	DefaultErrorPreview     = 5
	DefaultFuzzyThreshold   = 0.92

	envPrefix = "PEOWNERSHIP_"
)

// ErrConfigNotFound is returned when an explicit config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

type Config struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	RootCategoryURL   string        `yaml:"root_category_url" validate:"required,url"`
	JSONOutputPath    string        `yaml:"json_output" validate:"required"`
	CSVOutputPath     string        `yaml:"csv_output" validate:"required"`
	DBPath            string        `yaml:"db_path"` // Empty disables persistence
	InterRequestDelay time.Duration `yaml:"delay" validate:"gte=0s"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0s"`
	UserAgent         string        `yaml:"user_agent" validate:"required"`
	FollowPagination  bool          `yaml:"follow_pagination"`
	MaxCategoryPages  int           `yaml:"max_category_pages" validate:"gte=1"`
	ErrorPreview      int           `yaml:"error_preview" validate:"gte=0"`
	FuzzyThreshold    float64       `yaml:"fuzzy_threshold" validate:"gte=0,lte=1"`
}

func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		RootCategoryURL:   DefaultRootCategoryURL,
		JSONOutputPath:    DefaultJSONOutputPath,
		CSVOutputPath:     DefaultCSVOutputPath,
		DBPath:            DefaultDBPath,
		InterRequestDelay: DefaultDelay,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxCategoryPages:  DefaultMaxCategoryPages,
		ErrorPreview:      DefaultErrorPreview,
		FuzzyThreshold:    DefaultFuzzyThreshold,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns peownership/config.yaml from the XDG config
// directories, or "" when there is none.
func DefaultPath() string {
	path, err := xdg.SearchConfigFile(AppName + "/config.yaml")
	if err != nil {
		return ""
	}
	return path
}

// ApplyEnv overrides fields from PEOWNERSHIP_* variables that are set.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"BASE_URL":   &c.BaseURL,
		"ROOT_URL":   &c.RootCategoryURL,
		"JSON_OUT":   &c.JSONOutputPath,
		"CSV_OUT":    &c.CSVOutputPath,
		"DB":         &c.DBPath,
		"USER_AGENT": &c.UserAgent,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"DELAY":   &c.InterRequestDelay,
		"TIMEOUT": &c.Timeout,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"MAX_PAGES":     &c.MaxCategoryPages,
		"ERROR_PREVIEW": &c.ErrorPreview,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "FOLLOW_PAGINATION"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sFOLLOW_PAGINATION: %w", envPrefix, err)
		}
		c.FollowPagination = b
	}

	if v, ok := os.LookupEnv(envPrefix + "FUZZY_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sFUZZY_THRESHOLD: %w", envPrefix, err)
		}
		c.FuzzyThreshold = f
	}

	return nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// PagesPerOwner is the listing page cap handed to the traversal.
func (c *Config) PagesPerOwner() int {
	if !c.FollowPagination {
		return 1
	}
	return c.MaxCategoryPages
}

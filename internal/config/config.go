package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxFileSize bounds config files; anything larger is rejected unread.
const MaxFileSize = 1 * 1024 * 1024

// Config holds pcdtool settings. Every field is optional: unset fields
// fall back to the defaults returned by the Get* accessors, so partial
// files are safe.
type Config struct {
	// Exporters
	ExportDir      *string  `json:"export_dir,omitempty" yaml:"export_dir,omitempty"`
	ASCPrecision   *int     `json:"asc_precision,omitempty" yaml:"asc_precision,omitempty"`
	PlotWidthInch  *float64 `json:"plot_width_inch,omitempty" yaml:"plot_width_inch,omitempty"`
	PlotHeightInch *float64 `json:"plot_height_inch,omitempty" yaml:"plot_height_inch,omitempty"`
	PlotMaxPoints  *int     `json:"plot_max_points,omitempty" yaml:"plot_max_points,omitempty"`
	ChartMaxPoints *int     `json:"chart_max_points,omitempty" yaml:"chart_max_points,omitempty"`

	// Catalog and viewer
	CatalogPath *string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
	CloudDir    *string `json:"cloud_dir,omitempty" yaml:"cloud_dir,omitempty"`
	ListenAddr  *string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`

	// Remote storage (optional)
	S3 *S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config configures the S3 cloud store. Prefer the default AWS credential
// chain (environment, shared config, instance role) over static keys.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	UsePathStyle    bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
}

const (
	DefaultExportDir      = "exports"
	DefaultASCPrecision   = 6
	DefaultPlotSizeInch   = 8.0
	DefaultPlotMaxPoints  = 50000
	DefaultChartMaxPoints = 20000
	DefaultCatalogPath    = "pcdkit.db"
	DefaultCloudDir       = "."
	DefaultListenAddr     = "127.0.0.1:8090"
	DefaultS3Region       = "us-east-1"

	// maxASCPrecision is the most digits after the point that still carry
	// information for a float64.
	maxASCPrecision = 17
)

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a .json, .yaml or .yml config file and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must be .json, .yaml or .yml, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *Config) Validate() error {
	if c.ASCPrecision != nil && (*c.ASCPrecision < 0 || *c.ASCPrecision > maxASCPrecision) {
		return fmt.Errorf("asc_precision must be between 0 and %d, got %d", maxASCPrecision, *c.ASCPrecision)
	}
	if c.PlotWidthInch != nil && *c.PlotWidthInch <= 0 {
		return fmt.Errorf("plot_width_inch must be positive, got %g", *c.PlotWidthInch)
	}
	if c.PlotHeightInch != nil && *c.PlotHeightInch <= 0 {
		return fmt.Errorf("plot_height_inch must be positive, got %g", *c.PlotHeightInch)
	}
	if c.PlotMaxPoints != nil && *c.PlotMaxPoints < 1 {
		return fmt.Errorf("plot_max_points must be at least 1, got %d", *c.PlotMaxPoints)
	}
	if c.ChartMaxPoints != nil && *c.ChartMaxPoints < 1 {
		return fmt.Errorf("chart_max_points must be at least 1, got %d", *c.ChartMaxPoints)
	}
	if c.ExportDir != nil && *c.ExportDir == "" {
		return fmt.Errorf("export_dir must not be empty")
	}
	if c.S3 != nil {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when s3 is configured")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return fmt.Errorf("s3.access_key_id and s3.secret_access_key must be set together")
		}
	}
	return nil
}

func (c *Config) GetExportDir() string {
	if c.ExportDir == nil {
		return DefaultExportDir
	}
	return *c.ExportDir
}

// GetASCPrecision returns the number of digits after the decimal point for
// float columns in ASC exports.
func (c *Config) GetASCPrecision() int {
	if c.ASCPrecision == nil {
		return DefaultASCPrecision
	}
	return *c.ASCPrecision
}

func (c *Config) GetPlotWidthInch() float64 {
	if c.PlotWidthInch == nil {
		return DefaultPlotSizeInch
	}
	return *c.PlotWidthInch
}

func (c *Config) GetPlotHeightInch() float64 {
	if c.PlotHeightInch == nil {
		return DefaultPlotSizeInch
	}
	return *c.PlotHeightInch
}

func (c *Config) GetPlotMaxPoints() int {
	if c.PlotMaxPoints == nil {
		return DefaultPlotMaxPoints
	}
	return *c.PlotMaxPoints
}

func (c *Config) GetChartMaxPoints() int {
	if c.ChartMaxPoints == nil {
		return DefaultChartMaxPoints
	}
	return *c.ChartMaxPoints
}

func (c *Config) GetCatalogPath() string {
	if c.CatalogPath == nil || *c.CatalogPath == "" {
		return DefaultCatalogPath
	}
	return *c.CatalogPath
}

func (c *Config) GetCloudDir() string {
	if c.CloudDir == nil || *c.CloudDir == "" {
		return DefaultCloudDir
	}
	return *c.CloudDir
}

func (c *Config) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return *c.ListenAddr
}

// GetS3 returns the S3 settings with the region defaulted, or nil when S3
// is not configured.
func (c *Config) GetS3() *S3Config {
	if c.S3 == nil {
		return nil
	}
	s := *c.S3
	if s.Region == "" {
		s.Region = DefaultS3Region
	}
	return &s
}

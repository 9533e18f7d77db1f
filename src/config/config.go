package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the asset pipeline configuration
type Config struct {
	BaseDir string `yaml:"base_dir" env:"ASSETPIPE_BASE_DIR"`

	Paths   PathsConfig   `yaml:"paths"`
	Convert ConvertConfig `yaml:"convert"`
	Clean   CleanConfig   `yaml:"clean"`
}

// PathsConfig holds the image and asset roots, relative to BaseDir
type PathsConfig struct {
	ImageDir string `yaml:"image_dir" env:"ASSETPIPE_IMAGE_DIR"`
	AssetDir string `yaml:"asset_dir" env:"ASSETPIPE_ASSET_DIR"`
}

type ConvertConfig struct {
	Quality int `yaml:"quality" env:"ASSETPIPE_WEBP_QUALITY"`
	Method  int `yaml:"method" env:"ASSETPIPE_WEBP_METHOD"`

	// Lowercase substrings; a PNG whose lowercased name contains one is skipped
	Exclude []string `yaml:"exclude" env:"ASSETPIPE_EXCLUDE"`

	TextExtensions []string `yaml:"text_extensions" env:"ASSETPIPE_TEXT_EXTENSIONS"`
	SkipDirs       []string `yaml:"skip_dirs" env:"ASSETPIPE_SKIP_DIRS"`
}

type CleanConfig struct {
	// Exact file names the cleaner never deletes
	Keep []string `yaml:"keep" env:"ASSETPIPE_KEEP"`
}

// Default returns the built-in configuration rooted at baseDir
func Default(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		Paths: PathsConfig{
			ImageDir: filepath.Join("app", "src", "main", "assets", "img"),
			AssetDir: filepath.Join("app", "src", "main", "assets"),
		},
		Convert: ConvertConfig{
			Quality:        85,
			Method:         6,
			Exclude:        []string{"thumbs.db", "readme", ".md", ".txt"},
			TextExtensions: []string{".html", ".js", ".css", ".json"},
			SkipDirs:       []string{"node_modules", ".git", "__pycache__"},
		},
		Clean: CleanConfig{
			// Conversion failed for this one
			Keep: []string{"reloj.png"},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// ASSETPIPE_* environment variables, in that order.
// An empty path or a missing file leaves the defaults untouched.
func Load(path, baseDir string) (*Config, error) {
	cfg := Default(baseDir)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if c.Paths.ImageDir == "" {
		return fmt.Errorf("paths.image_dir is required")
	}
	if c.Paths.AssetDir == "" {
		return fmt.Errorf("paths.asset_dir is required")
	}
	if c.Convert.Quality < 0 || c.Convert.Quality > 100 {
		return fmt.Errorf("convert.quality must be between 0 and 100, got %d", c.Convert.Quality)
	}
	if c.Convert.Method < 0 || c.Convert.Method > 6 {
		return fmt.Errorf("convert.method must be between 0 and 6, got %d", c.Convert.Method)
	}
	return nil
}

// ImageRoot returns the directory scanned for PNG files
func (c *Config) ImageRoot() string {
	return c.resolve(c.Paths.ImageDir)
}

// AssetRoot returns the directory scanned for text references
func (c *Config) AssetRoot() string {
	return c.resolve(c.Paths.AssetDir)
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.BaseDir, dir)
}

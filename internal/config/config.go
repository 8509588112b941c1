// Package config loads the bridge configuration file. Every field has a
// default, so running without a file (or with an empty one) yields a working
// bridge that launches `pros terminal` from the current directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen = "127.0.0.1:8000"

	defaultIndex  = "Viewer.html"
	defaultImage  = "robot_image.png"
	defaultAssets = "assets"
)

// Config mirrors the bridge.yaml document structure.
type Config struct {
	Listen  string      `yaml:"listen"`
	Process ProcessSpec `yaml:"process"`
	Viewer  ViewerSpec  `yaml:"viewer"`
}

// ProcessSpec fixes the supervised process launch contract.
type ProcessSpec struct {
	Command []string `yaml:"command"`
	Workdir string   `yaml:"workdir"`
}

// ViewerSpec locates the static viewer surface served alongside the API.
type ViewerSpec struct {
	Directory string `yaml:"directory"`
	Index     string `yaml:"index"`
	Image     string `yaml:"image"`
	Assets    string `yaml:"assets"`
}

// Default returns the configuration used when no file is provided, anchored
// at the given resource root (the current directory when empty).
func Default(root string) (*Config, error) {
	cfg := &Config{}
	if err := cfg.applyDefaults(root); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

// Load reads a bridge configuration from the provided path. Relative paths in
// the document resolve against the file's directory.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc Config
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	if err := doc.applyDefaults(filepath.Dir(absPath)); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

func (c *Config) applyDefaults(root string) error {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve resource root: %w", err)
	}

	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if len(c.Process.Command) == 0 {
		c.Process.Command = []string{"pros", "terminal"}
	}
	c.Process.Workdir = resolveDir(absRoot, os.ExpandEnv(c.Process.Workdir))
	c.Viewer.Directory = resolveDir(c.Process.Workdir, os.ExpandEnv(c.Viewer.Directory))
	if c.Viewer.Index == "" {
		c.Viewer.Index = defaultIndex
	}
	if c.Viewer.Image == "" {
		c.Viewer.Image = defaultImage
	}
	if c.Viewer.Assets == "" {
		c.Viewer.Assets = defaultAssets
	}
	return nil
}

func (c *Config) validate() error {
	for i, tok := range c.Process.Command {
		if tok == "" {
			return fmt.Errorf("process.command[%d] must not be empty", i)
		}
	}
	if filepath.IsAbs(c.Viewer.Index) || filepath.IsAbs(c.Viewer.Assets) || filepath.IsAbs(c.Viewer.Image) {
		return fmt.Errorf("viewer.index, viewer.image and viewer.assets are relative to viewer.directory")
	}
	return nil
}

// IndexPath returns the absolute path of the viewer entry page.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Viewer.Directory, c.Viewer.Index)
}

// ImagePath returns the absolute path of the viewer image asset.
func (c *Config) ImagePath() string {
	return filepath.Join(c.Viewer.Directory, c.Viewer.Image)
}

// AssetsDir returns the absolute path of the static assets directory.
func (c *Config) AssetsDir() string {
	return filepath.Join(c.Viewer.Directory, c.Viewer.Assets)
}

func resolveDir(base, dir string) string {
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Clean(filepath.Join(base, dir))
}

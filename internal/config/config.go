package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Paper struct {
		Repo         string `yaml:"repo"`          // GitHub owner/name of the paper repository
		RootFile     string `yaml:"root_file"`     // top-level .tex file inside a release tree
		MinVersion   string `yaml:"min_version"`   // releases at or below this tag are not indexed
		SectionPivot string `yaml:"section_pivot"` // first release with per-section formula numbering
		Token        string `yaml:"token"`         // optional GitHub API token
	} `yaml:"paper"`
	Cache struct {
		Dir string `yaml:"dir"` // where per-release database artifacts live
	} `yaml:"cache"`
	Scan struct {
		Ignore []string `yaml:"ignore"` // glob patterns skipped while scanning a codebase
	} `yaml:"scan"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.Paper.Repo = "gavofyork/graypaper"
	cfg.Paper.RootFile = "graypaper.tex"
	cfg.Paper.MinVersion = "v0.4.0"
	cfg.Paper.SectionPivot = "v0.5.0"
	cfg.Cache.Dir = "./paper_metadata"
	cfg.Scan.Ignore = []string{".git", "vendor", "node_modules"}
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config; a missing file just means defaults
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if repo := os.Getenv("JAMBIATO_REPO"); repo != "" {
		cfg.Paper.Repo = repo
	}
	if token := os.Getenv("JAMBIATO_TOKEN"); token != "" {
		cfg.Paper.Token = token
	}
	if dir := os.Getenv("JAMBIATO_CACHE_DIR"); dir != "" {
		cfg.Cache.Dir = dir
	}

	return cfg, nil
}

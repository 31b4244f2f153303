package config

import (
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source struct {
		Root   string   `yaml:"root"`
		Ignore []string `yaml:"ignore"`
	} `yaml:"source"`
	Docs struct {
		Root       string `yaml:"root"`
		IndexFile  string `yaml:"index_file"`
		StagingDir string `yaml:"staging_dir"`
	} `yaml:"docs"`
	Rules struct {
		Path string `yaml:"path"`
	} `yaml:"rules"`
	Run struct {
		Workers     int    `yaml:"workers"`
		HistoryPath string `yaml:"history_path"`
	} `yaml:"run"`
}

// LoadConfig reads the YAML config, overlaying .env and environment variables.
// A missing config file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if root := os.Getenv("DOCSYNC_SOURCE_ROOT"); root != "" {
		cfg.Source.Root = root
	}
	if root := os.Getenv("DOCSYNC_DOCS_ROOT"); root != "" {
		cfg.Docs.Root = root
	}
	if rules := os.Getenv("DOCSYNC_RULES"); rules != "" {
		cfg.Rules.Path = rules
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Root == "" {
		c.Source.Root = "."
	}
	if len(c.Source.Ignore) == 0 {
		c.Source.Ignore = []string{".git", "node_modules", "dist", "lib", "__tests__"}
	}
	if c.Docs.Root == "" {
		c.Docs.Root = "docs/components"
	}
	if c.Docs.IndexFile == "" {
		c.Docs.IndexFile = "components.md"
	}
	if c.Docs.StagingDir == "" {
		c.Docs.StagingDir = ".docsync-staging"
	}
	if c.Rules.Path == "" {
		c.Rules.Path = "category-rules.yaml"
	}
	if c.Run.Workers <= 0 {
		c.Run.Workers = runtime.NumCPU()
	}
	if c.Run.HistoryPath == "" {
		c.Run.HistoryPath = "docsync.db"
	}
}

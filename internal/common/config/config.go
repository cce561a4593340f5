package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ============================================================
// Configuration
// ============================================================

// Config is read from an optional YAML file named by CONFIG_PATH; environment
// variables override file values.
type Config struct {
	Port         string `yaml:"port" env:"PORT" env-default:"3000"`
	Environment  string `yaml:"env" env:"ENV" env-default:"development"`
	ReadTimeout  int    `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"10"`
	WriteTimeout int    `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"10"`

	Assembler AssemblerConfig `yaml:"assembler"`
}

type AssemblerConfig struct {
	DBPath    string `yaml:"db_path" env:"ASSEMBLER_DB_PATH" env-default:"data/db/models.db"`
	OutputDir string `yaml:"output_dir" env:"ASSEMBLER_OUTPUT_DIR" env-default:"data/models"`
	// Author is written into the FILE_NAME header of every IFC file.
	Author string `yaml:"author" env:"ASSEMBLER_AUTHOR"`
	// EmbedMesh attaches Pset_CustomGeometry with the element's mesh JSON.
	EmbedMesh bool `yaml:"embed_mesh" env:"EMBED_MESH" env-default:"false"`
}

// Load reads the configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

func (c *Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

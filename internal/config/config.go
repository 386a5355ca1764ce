package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration (matches config/config.yaml).
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"` // processing and paths
	Database DatabaseConfig `mapstructure:"database"` // optional import stage
}

// PipelineConfig controls the streaming stage and the file layout.
type PipelineConfig struct {
	ChunkSize       int    `mapstructure:"chunk_size"`        // rows per batch
	Workers         int    `mapstructure:"workers"`           // 0 = NumCPU-1
	MPCOrbFile      string `mapstructure:"mpcorb_file"`       // primary catalog
	NEOFile         string `mapstructure:"neo_file"`          // secondary catalog
	MPCOrbOutputDir string `mapstructure:"mpcorb_output_dir"` // per-source tables
	NEOOutputDir    string `mapstructure:"neo_output_dir"`
	FinalOutputDir  string `mapstructure:"final_output_dir"` // merged dataset
}

// DatabaseConfig configures the optional bulk-import stage.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	ImportEnabled   bool          `mapstructure:"import_enabled"`
	BatchSize       int           `mapstructure:"batch_size"` // rows per insert
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// WorkerCount resolves the configured worker count; zero means one worker per
// CPU with one kept free for the orchestrator.
func (p *PipelineConfig) WorkerCount() int {
	if p.Workers > 0 {
		return p.Workers
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// LoadConfig reads config/config.yaml; the database DSN may be overridden
// from .env / the environment so credentials stay out of the config file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("pipeline.chunk_size", 100000)
	viper.SetDefault("pipeline.workers", 0)
	viper.SetDefault("pipeline.mpcorb_file", "DATASETS/mpcorb.csv")
	viper.SetDefault("pipeline.neo_file", "DATASETS/neo.csv")
	viper.SetDefault("pipeline.mpcorb_output_dir", "output_tables_mpcorb")
	viper.SetDefault("pipeline.neo_output_dir", "output_tables_neo")
	viper.SetDefault("pipeline.final_output_dir", "final_dataset")
	viper.SetDefault("database.import_enabled", false)
	viper.SetDefault("database.batch_size", 1000)
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Hour)
}

// overrideFromEnv applies environment overrides for sensitive values.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
}

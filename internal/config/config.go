package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // sqlite | mysql | postgres
		Path     string `yaml:"path"`   // sqlite file
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Pipeline struct {
		PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
		PhaseTimeoutSeconds int    `yaml:"phaseTimeoutSeconds"`
		Concurrency         int    `yaml:"concurrency"`
		Cron                string `yaml:"cron"` // optional cron expression instead of fixed interval
	} `yaml:"pipeline"`

	Logs struct {
		Mode string `yaml:"mode"` // local | minio
		Root string `yaml:"root"`
	} `yaml:"logs"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		EmbeddingModel string `yaml:"embeddingModel"`
	} `yaml:"ai"`

	Retrieval struct {
		TopK int `yaml:"topK"`
		// Path is the SQLite file holding the knowledge-base vectors. The
		// vector store always lives in SQLite, independent of the ledger
		// driver.
		Path string `yaml:"path"`
	} `yaml:"retrieval"`

	Analyst struct {
		Mode string `yaml:"mode"` // rules | agent
	} `yaml:"analyst"`
}

// Load baca file config, fall back to defaults when the file is absent so a
// bare checkout runs locally without any setup.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = "dev.db"
	cfg.Database.SSLMode = "disable"
	cfg.Pipeline.PollIntervalSeconds = 10
	cfg.Pipeline.PhaseTimeoutSeconds = 120
	cfg.Pipeline.Concurrency = 1
	cfg.Logs.Mode = "local"
	cfg.Logs.Root = "logs"
	cfg.AI.Model = "gpt-4o-mini"
	cfg.AI.EmbeddingModel = "text-embedding-3-small"
	cfg.Retrieval.TopK = 3
	cfg.Retrieval.Path = "kb.db"
	cfg.Analyst.Mode = "rules"
	return cfg
}

// applyEnv overrides file values with environment-style settings.
func applyEnv(cfg *Config) {
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.PollIntervalSeconds = n
		}
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DB_FILE"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("KB_FILE"); v != "" {
		cfg.Retrieval.Path = v
	}
	if v := os.Getenv("LOGS_MODE"); v != "" {
		cfg.Logs.Mode = v
	}
	if v := os.Getenv("LOGS_LOCAL_ROOT"); v != "" {
		cfg.Logs.Root = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("EMBEDDINGS_MODEL"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
	if v := os.Getenv("ANALYST_MODE"); v != "" {
		cfg.Analyst.Mode = v
	}
}

// PollInterval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Pipeline.PollIntervalSeconds) * time.Second
}

// PhaseTimeout as a duration.
func (c *Config) PhaseTimeout() time.Duration {
	return time.Duration(c.Pipeline.PhaseTimeoutSeconds) * time.Second
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

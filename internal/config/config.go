package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the YAML file path.
const EnvConfigPath = "MONEYMAGIC_CONFIG"

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendGCS    = "gcs"
)

// Config is the runtime configuration of the API server and CLIs.
type Config struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`

	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Coach  CoachConfig  `yaml:"coach"`
	Export ExportConfig `yaml:"export"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type StoreConfig struct {
	Backend            string `yaml:"backend"`
	File               string `yaml:"file"`
	GCSBucket          string `yaml:"gcs_bucket"`
	GCSPrefix          string `yaml:"gcs_prefix"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`
}

type CoachConfig struct {
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ExportConfig enables the BigQuery transaction export when Project is set.
type ExportConfig struct {
	Project string `yaml:"bq_project"`
	Dataset string `yaml:"bq_dataset"`
	Table   string `yaml:"bq_table"`
	Workers int    `yaml:"workers"`
}

// Enabled reports whether warehouse export is configured.
func (e ExportConfig) Enabled() bool {
	return e.Project != ""
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Port:        "8080",
		CORSOrigins: []string{"*"},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Backend:   BackendMemory,
			File:      "data/datasets.json",
			GCSPrefix: "datasets",
		},
		Coach: CoachConfig{
			GeminiModel: "gemini-2.5-flash",
			Timeout:     20 * time.Second,
		},
		Export: ExportConfig{
			Dataset: "moneymagic",
			Table:   "transactions",
			Workers: 2,
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (if
// non-empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config.Load: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config.Load: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromEnv is Load with the path taken from MONEYMAGIC_CONFIG.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_FILE", &c.Store.File)
	str("GCS_BUCKET", &c.Store.GCSBucket)
	str("GCS_PREFIX", &c.Store.GCSPrefix)
	str("GCS_CREDENTIALS_FILE", &c.Store.GCSCredentialsFile)

	str("GEMINI_API_KEY", &c.Coach.GeminiAPIKey)
	str("GEMINI_MODEL", &c.Coach.GeminiModel)
	if v, ok := lookup("COACH_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid COACH_TIMEOUT %q: %w", v, err)
		}
		c.Coach.Timeout = d
	}

	str("BQ_PROJECT", &c.Export.Project)
	str("BQ_DATASET", &c.Export.Dataset)
	str("BQ_TABLE", &c.Export.Table)
	if v, ok := lookup("EXPORT_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid EXPORT_WORKERS %q: %w", v, err)
		}
		c.Export.Workers = n
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: port is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("config: port %q is not a number", c.Port)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.File == "" {
			return fmt.Errorf("config: store.file is required for the file backend")
		}
	case BackendGCS:
		if c.Store.GCSBucket == "" {
			return fmt.Errorf("config: store.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q (want memory, file or gcs)", c.Store.Backend)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}

	if c.Coach.Timeout <= 0 {
		return fmt.Errorf("config: coach timeout must be positive")
	}

	if c.Export.Enabled() {
		if c.Export.Dataset == "" || c.Export.Table == "" {
			return fmt.Errorf("config: bq_dataset and bq_table are required when bq_project is set")
		}
		if c.Export.Workers < 1 {
			return fmt.Errorf("config: export workers must be at least 1")
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

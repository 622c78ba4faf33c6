package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	domainconfig "github.com/dnsosebee/methodable-sub000/domain/config"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Storage
	StorageBackend string `yaml:"storage_backend"`
	DataDir        string `yaml:"data_dir"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"table_name"`
	IndexName     string `yaml:"index_name"` // GSI1 - for per-owner listing
	EventBusName  string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Editing
	ReferenceHost    string       `yaml:"reference_host"`
	StrictInvariants *bool        `yaml:"strict_invariants"`
	Editor           EditorConfig `yaml:"editor"`

	// Query cache TTL in seconds; zero disables caching
	CacheTTL int `yaml:"cache_ttl"`

	// Edits allowed per caller per minute; zero disables limiting
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// Feature flags
	EnableMetrics    bool     `yaml:"enable_metrics"`
	EnableTracing    bool     `yaml:"enable_tracing"`
	EnablePrometheus bool     `yaml:"enable_prometheus"`
	EnableEvents     bool     `yaml:"enable_events"`
	EnableCORS       bool     `yaml:"enable_cors"`
	CORSOrigins      []string `yaml:"cors_origins"`

	// ConfigFile is the YAML file the configuration was read from, if any
	ConfigFile string `yaml:"-"`
}

// EditorConfig overrides editing limits. Zero values keep the defaults for
// the environment.
type EditorConfig struct {
	MaxTextLength        int    `yaml:"max_text_length"`
	MaxPasteLines        int    `yaml:"max_paste_lines"`
	MaxOutlineDepth      int    `yaml:"max_outline_depth"`
	MaxBlocksPerDocument int    `yaml:"max_blocks_per_document"`
	DefaultRootText      string `yaml:"default_root_text"`
}

func defaults() *Config {
	return &Config{
		ServerAddress:  ":8080",
		Environment:    "development",
		StorageBackend: StorageMemory,
		DataDir:        "./data",
		AWSRegion:      "us-west-2",
		DynamoDBTable:  "methodable",
		IndexName:      "GSI1",
		EventBusName:   "methodable-events",
		LogLevel:       "info",
		ReferenceHost:  "localhost:3000",
		CacheTTL:       30,
		EnableCORS:     true,
		CORSOrigins:    []string{"*"},
	}
}

// LoadConfig loads configuration from the YAML file named by CONFIG_FILE,
// if any, and then from environment variables, which take precedence
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv("CONFIG_FILE"))
}

// LoadConfigFile is LoadConfig with an explicit YAML file; an empty path
// skips the file
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.IndexName = getEnv("INDEX_NAME", c.IndexName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.IsLambda = getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "" || getEnvBool("IS_LAMBDA", false)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ReferenceHost = getEnv("REFERENCE_HOST", c.ReferenceHost)
	c.CacheTTL = getEnvInt("CACHE_TTL", c.CacheTTL)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnablePrometheus = getEnvBool("ENABLE_PROMETHEUS", c.EnablePrometheus)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = strings.Split(origins, ",")
	}
	if os.Getenv("STRICT_INVARIANTS") != "" {
		strict := getEnvBool("STRICT_INVARIANTS", false)
		c.StrictInvariants = &strict
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file storage backend")
		}
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL cannot be negative")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	return c.DomainConfig().Validate()
}

// DomainConfig returns the editing rules for this environment with the
// configured overrides applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	if c.StrictInvariants != nil {
		dc.StrictInvariants = *c.StrictInvariants
	}
	if c.Editor.MaxTextLength > 0 {
		dc.MaxTextLength = c.Editor.MaxTextLength
	}
	if c.Editor.MaxPasteLines > 0 {
		dc.MaxPasteLines = c.Editor.MaxPasteLines
	}
	if c.Editor.MaxOutlineDepth > 0 {
		dc.MaxOutlineDepth = c.Editor.MaxOutlineDepth
	}
	if c.Editor.MaxBlocksPerDocument > 0 {
		dc.MaxBlocksPerDocument = c.Editor.MaxBlocksPerDocument
	}
	if c.Editor.DefaultRootText != "" {
		dc.DefaultRootText = c.Editor.DefaultRootText
	}
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

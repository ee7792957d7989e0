// Package config loads the YAML configuration for the selected environment
// with ${VAR} and ${VAR:-default} expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
)

// Config holds the ragdex service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds the chunk index schema knobs.
type IndexConfig struct {
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	Precision       string `yaml:"precision"` // float32 (default), float16
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"` // 0 = cache entries never expire
}

// RetrievalConfig holds the default retrieval settings; HTTP callers may
// override individual knobs per request.
type RetrievalConfig struct {
	SemanticCandidates int     `yaml:"semantic_candidates"`
	SemanticThreshold  float64 `yaml:"semantic_threshold"`
	TextCandidates     int     `yaml:"text_candidates"`
	SemanticWeight     float64 `yaml:"semantic_weight"`
	TextWeight         float64 `yaml:"text_weight"`
	FusionK            int     `yaml:"fusion_k"`
	UseDiversification *bool   `yaml:"use_diversification"`
	MMRLambda          float64 `yaml:"mmr_lambda"`
	FinalK             int     `yaml:"final_k"`
	IndexBatchSize     int     `yaml:"index_batch_size"`
	IndexParallelism   int     `yaml:"index_parallelism"`
}

// IngestConfig holds document splitting settings.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. Retrieval defaults
// come from the settings value object so the two never drift apart.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.Precision == "" {
		c.Index.Precision = "float32"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}

	def := settings.Default()
	if c.Retrieval.SemanticCandidates <= 0 {
		c.Retrieval.SemanticCandidates = def.SemanticCandidates
	}
	if c.Retrieval.SemanticThreshold <= 0 {
		c.Retrieval.SemanticThreshold = def.SemanticThreshold
	}
	if c.Retrieval.TextCandidates <= 0 {
		c.Retrieval.TextCandidates = def.TextCandidates
	}
	if c.Retrieval.SemanticWeight <= 0 {
		c.Retrieval.SemanticWeight = def.SemanticWeight
	}
	if c.Retrieval.TextWeight <= 0 {
		c.Retrieval.TextWeight = def.TextWeight
	}
	if c.Retrieval.FusionK <= 0 {
		c.Retrieval.FusionK = def.FusionK
	}
	if c.Retrieval.UseDiversification == nil {
		v := def.UseDiversification
		c.Retrieval.UseDiversification = &v
	}
	if c.Retrieval.MMRLambda <= 0 {
		c.Retrieval.MMRLambda = def.MMRLambda
	}
	if c.Retrieval.FinalK <= 0 {
		c.Retrieval.FinalK = def.FinalK
	}
	if c.Retrieval.IndexBatchSize <= 0 {
		c.Retrieval.IndexBatchSize = def.IndexBatchSize
	}
	if c.Retrieval.IndexParallelism <= 0 {
		c.Retrieval.IndexParallelism = def.IndexParallelism
	}
}

// Validate checks the configuration for correctness. The retrieval section
// is validated through the settings value object.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions is required")
	}
	switch c.Index.Precision {
	case "float32", "float16":
	default:
		return fmt.Errorf("index.precision must be \"float32\" or \"float16\", got %q", c.Index.Precision)
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	return nil
}

// Settings converts the retrieval section into the immutable per-call value object.
func (c *Config) Settings() settings.Settings {
	return settings.Settings{
		SemanticCandidates: c.Retrieval.SemanticCandidates,
		SemanticThreshold:  c.Retrieval.SemanticThreshold,
		TextCandidates:     c.Retrieval.TextCandidates,
		SemanticWeight:     c.Retrieval.SemanticWeight,
		TextWeight:         c.Retrieval.TextWeight,
		FusionK:            c.Retrieval.FusionK,
		UseDiversification: c.Retrieval.UseDiversification == nil || *c.Retrieval.UseDiversification,
		MMRLambda:          c.Retrieval.MMRLambda,
		FinalK:             c.Retrieval.FinalK,
		IndexBatchSize:     c.Retrieval.IndexBatchSize,
		IndexParallelism:   c.Retrieval.IndexParallelism,
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			APIKey:     "test-key",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingEmbeddingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_MissingDimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding dimensions")
	}
}

func TestValidate_InvalidPrecision(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Precision = "float64"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid precision")
	}

	expected := `index.precision must be "float32" or "float16", got "float64"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_InvalidRetrievalKnob(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.MMRLambda = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range mmr lambda")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Index.Precision != "float32" {
		t.Errorf("expected Precision=float32, got %q", cfg.Index.Precision)
	}

	// The retrieval section must come out identical to the tuned defaults.
	if got, want := cfg.Settings(), settings.Default(); got != want {
		t.Errorf("retrieval defaults drifted:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Index:    IndexConfig{HNSWM: 16, HNSWEFConstruct: 200, Precision: "float16"},
		Retrieval: RetrievalConfig{
			FinalK:             10,
			UseDiversification: &off,
		},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.Precision != "float16" {
		t.Errorf("expected Precision=float16, got %q", cfg.Index.Precision)
	}

	set := cfg.Settings()
	if set.FinalK != 10 {
		t.Errorf("expected FinalK=10, got %d", set.FinalK)
	}
	if set.UseDiversification {
		t.Error("explicit use_diversification=false must survive defaults")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}

	yaml := `
http:
  port: 8080
database:
  addrs: ["${RAGDEX_TEST_REDIS:-localhost:6379}"]
embedding:
  api_key: "${RAGDEX_TEST_KEY}"
  model: text-embedding-3-small
  dimensions: 1536
retrieval:
  final_k: 7
`
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RAGDEX_TEST_KEY", "sekret")
	t.Chdir(dir)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Embedding.APIKey != "sekret" {
		t.Errorf("APIKey = %q, expected expanded env var", cfg.Embedding.APIKey)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("Addrs[0] = %q, expected fallback default", cfg.Database.Addrs[0])
	}
	if cfg.Retrieval.FinalK != 7 {
		t.Errorf("FinalK = %d, expected 7 from file", cfg.Retrieval.FinalK)
	}
	if cfg.Retrieval.FusionK != 60 {
		t.Errorf("FusionK = %d, expected default 60", cfg.Retrieval.FusionK)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Qdrant:    QdrantConfig{Host: "localhost"},
		Embedding: EmbeddingConfig{APIKey: "test-key"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingQdrantHost(t *testing.T) {
	cfg := validConfig()
	cfg.Qdrant.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing qdrant host")
	}
}

func TestValidate_MissingEmbeddingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing embedding api key")
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
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("expected qdrant port 6334, got %d", cfg.Qdrant.Port)
	}
	if cfg.Qdrant.ChunkCollection != "ocr_chunks" {
		t.Errorf("expected ChunkCollection='ocr_chunks', got %q", cfg.Qdrant.ChunkCollection)
	}
	if cfg.Qdrant.SummaryCollection != "ocr_summaries" {
		t.Errorf("expected SummaryCollection='ocr_summaries', got %q", cfg.Qdrant.SummaryCollection)
	}
	if cfg.Qdrant.DenseVectorName != "ocr-dense-vector" {
		t.Errorf("expected DenseVectorName='ocr-dense-vector', got %q", cfg.Qdrant.DenseVectorName)
	}
	if cfg.Qdrant.SparseVectorName != "ocr-sparse-vector" {
		t.Errorf("expected SparseVectorName='ocr-sparse-vector', got %q", cfg.Qdrant.SparseVectorName)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Cache.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Cache.ReadinessTimeout)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Qdrant: QdrantConfig{Port: 7334, ChunkCollection: "custom_chunks"},
		Sparse: SparseConfig{Workers: 16},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Qdrant.Port != 7334 {
		t.Errorf("expected qdrant port 7334, got %d", cfg.Qdrant.Port)
	}
	if cfg.Qdrant.ChunkCollection != "custom_chunks" {
		t.Errorf("expected ChunkCollection='custom_chunks', got %q", cfg.Qdrant.ChunkCollection)
	}
	if cfg.Sparse.Workers != 16 {
		t.Errorf("expected Workers=16, got %d", cfg.Sparse.Workers)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_QDRANT_KEY", "secret")

	in := []byte("api_key: ${TEST_QDRANT_KEY}\nhost: ${TEST_MISSING:-localhost}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nhost: localhost\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `
http:
  port: 9090
qdrant:
  host: qdrant.internal
embedding:
  api_key: ${TEST_EMB_KEY}
`
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_EMB_KEY", "k-123")
	t.Chdir(dir)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Qdrant.Host != "qdrant.internal" {
		t.Errorf("host = %q", cfg.Qdrant.Host)
	}
	if cfg.Embedding.APIKey != "k-123" {
		t.Errorf("api_key = %q", cfg.Embedding.APIKey)
	}
	// defaults applied
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("default qdrant port not applied: %d", cfg.Qdrant.Port)
	}
}

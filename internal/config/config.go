package config

import (
	"os"
	"strconv"
)

type Config struct {
	Catalog   CatalogConfig
	Embedding EmbeddingConfig
	Server    ServerConfig
}

type CatalogConfig struct {
	Dir       string // directory holding the reference eyewear images
	CachePath string // path to the embedding cache blob
	IndexPath string // optional path to persist the HNSW index (empty = in-memory only)
}

type EmbeddingConfig struct {
	URL      string // embedding server base URL (defaults to http://localhost:8000)
	Dim      int    // embedding dimensionality (defaults to 512, CLIP ViT-B/32)
	Disabled bool   // force the null capability, useful for offline runs
}

type ServerConfig struct {
	Host string
	Port int
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envStr reads an environment variable, falling back to a default when unset.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func Load() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Dir:       envStr("REFERENCE_DIR", "reference_images"),
			CachePath: envStr("EMBEDDINGS_CACHE", "reference_embeddings.gob"),
			IndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Embedding: EmbeddingConfig{
			URL:      envStr("EMBEDDING_URL", "http://localhost:8000"),
			Dim:      envInt("EMBEDDING_DIM", 512),
			Disabled: envBool("EMBEDDING_DISABLED"),
		},
		Server: ServerConfig{
			Host: envStr("SERVER_HOST", "0.0.0.0"),
			Port: envInt("SERVER_PORT", 8080),
		},
	}
}

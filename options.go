package ragdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	password string

	openAIKey     string
	openAIBaseURL string
	model         string
	dimensions    int

	documentInstruction string
	queryInstruction    string
	cacheTTL            time.Duration

	embedder Embedder

	hnswM           int
	hnswEFConstruct int
	float16         bool

	chunkSize    int
	chunkOverlap int

	settings *Settings

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithOpenAI configures the embedding provider: API key, model name and
// vector dimensionality. baseURL may be empty for the default endpoint,
// or point at any OpenAI-compatible server.
func WithOpenAI(apiKey, baseURL, model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
		c.model = model
		c.dimensions = dimensions
	}
}

// WithEmbedder sets a custom embedding provider instead of OpenAI.
func WithEmbedder(e Embedder, dimensions int) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.dimensions = dimensions
	}
}

// WithInstructions sets instruction prefixes prepended to documents and
// queries before embedding. Either may be empty.
func WithInstructions(document, query string) Option {
	return func(c *clientConfig) {
		c.documentInstruction = document
		c.queryInstruction = query
	}
}

// WithEmbeddingCacheTTL bounds the lifetime of cached embeddings.
// Zero (the default) stores them without expiry.
func WithEmbeddingCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
	}
}

// WithSettings sets the default retrieval settings for the client.
// Individual Retrieve calls may still override them.
func WithSettings(s Settings) Option {
	return func(c *clientConfig) {
		c.settings = &s
	}
}

// WithChunking sets the splitter chunk size and overlap in characters.
// Defaults: 1000 and 200.
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithHNSW configures HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithFloat16 stores vectors in half precision, halving index memory at a
// small recall cost.
func WithFloat16() Option {
	return func(c *clientConfig) {
		c.float16 = true
	}
}

// WithLogger enables structured logging for client operations.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

package catalogdex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string
	dsn      string

	keyPrefix      string
	bulkWait       time.Duration
	recountWorkers int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the Redis 8 instance holding documents and indexes.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres enables subscriber and rating lookups. Empty dsn leaves them disabled.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithKeyPrefix overrides the storage key prefix. Must end with ":".
// Default: "catalogdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithBulkWait bounds how long CreateMany waits for documents to become searchable.
// Default: 5s.
func WithBulkWait(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.bulkWait = d
	})
}

// WithRecountWorkers sizes the background recount pool. Default: 4.
func WithRecountWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.recountWorkers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

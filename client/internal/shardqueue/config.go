package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config tunes the executor that carries preference mutations. Values come
// from SQ_* environment variables, e.g. SQ_SHARDS=8 SQ_MAX_ATTEMPTS=3.
//
// A mutation that still fails after MaxAttempts is rolled back by its owner,
// so the backoff budget bounds how long a rejected like stays on screen.
type Config struct {
	// Shards is the number of workers; movie ids hash onto them.
	Shards int `envconfig:"SHARDS" default:"4"`
	// QueueSize bounds pending mutations per shard.
	QueueSize int `envconfig:"QUEUE_SIZE" default:"128"`
	// EnqueueTimeout is how long Submit waits for room before reporting back-pressure.
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// ErrorHandler sees a failed job's final error at most once. Optional.
	ErrorHandler func(error) `envconfig:"-"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"4"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"100ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"5s"`
}

// LoadConfig reads Config from SQ_* environment variables.
func LoadConfig() (Config, error) {
	var c Config
	err := envconfig.Process("SQ", &c)
	return c, err
}

// withDefaults fills zero fields so a literal Config{} is usable.
func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

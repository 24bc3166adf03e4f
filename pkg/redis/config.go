package redis

import "time"

// Config describes the connection to the shared counter store.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// KeyPrefix namespaces rate limit and dedupe keys, e.g. per environment.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"ordergate:"`

	// OperationTimeout bounds every counter store call. A timeout counts as
	// the store being unavailable.
	OperationTimeout time.Duration `env:"REDIS_OPERATION_TIMEOUT" envDefault:"250ms"`
}

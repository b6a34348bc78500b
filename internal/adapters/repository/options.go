package repository

import "github.com/okian/liftboard/pkg/logger"

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithPrefix namespaces every key. Defaults to "liftboard".
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for slow or failed commands.
func WithLogger(l logger.Logger) Option {
	return func(s *RedisStore) {
		if l != nil {
			s.log = l
		}
	}
}

package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Dir       string // file backend root
	Namespace string // key prefix applied with Scoped
	Redis     RedisOptions
	Mongo     MongoOptions
}

// Open builds the configured backend, scoped to Config.Namespace.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendMemory:
		s = NewMemoryStore()
	case BackendFile, "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file store: no directory configured")
		}
		s, err = NewFileStore(cfg.Dir)
	case BackendRedis:
		s, err = OpenRedis(ctx, cfg.Redis)
	case BackendMongo:
		s, err = OpenMongo(ctx, cfg.Mongo)
	case BackendNone:
		s = NewNullStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Scoped(s, cfg.Namespace), nil
}

// Package store provides the key-value persistence behind saved documents
// and cached render artifacts.
//
// # Backends
//
//   - [MemoryStore]: process-local map, used by tests and `serve --store memory`
//   - [FileStore]: one JSON file per key under a directory, the CLI default
//   - [RedisStore]: github.com/redis/go-redis/v9, keys listed with SCAN
//   - [MongoStore]: go.mongodb.org/mongo-driver, one document per key
//   - [NullStore]: stores nothing, disables caching
//
// [Open] builds a backend from a [Config]; [Scoped] namespaces a store under
// a key prefix. Every backend reports hits, misses and writes through
// [observability.StoreHooks].
//
// # Expiry
//
// Set takes a ttl; zero means the entry lives until deleted. Expired
// entries read as misses and are dropped lazily (file, memory) or by the
// backend itself (Redis key expiry, Mongo TTL index).
//
// [observability.StoreHooks]: github.com/matzehuels/meshgraph/pkg/observability
package store

// Package storage persists the attribution state of an installation.
//
// Store is the minimal key-value contract the SDK needs. Three backends ship
// with the package:
//
//   - BadgerStore: embedded github.com/dgraph-io/badger/v4 database, the
//     default for apps and the CLI. Writes are synchronous.
//   - RedisStore: github.com/redis/go-redis/v9, for hosts that share one
//     attribution state between processes. ConnectRedis retries the initial ping.
//   - MemoryStore: process memory, for tests.
//
// Records layers the install record on top of a Store under the lo_ key
// namespace (lo_install_tracked, lo_install_id, lo_user_id). SaveInstall writes
// the install id before the tracked flag, so after a crash the record is either
// untracked or fully tracked.
//
//	store, err := storage.OpenBadger(storage.BadgerConfig{Path: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	records := storage.NewRecords(store)
//	rec, err := records.Load(ctx)
package storage

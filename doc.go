// Package cachalot implements a coordination layer between application code
// and a key-value backing store (Redis, Memcached, anything satisfying the
// adapter port). The store keeps the bytes; cachalot keeps them honest:
//
//   - tag-based invalidation: records carry (name, version) tags and a
//     record is outdated as soon as any of its tags is touched to a newer
//     version,
//   - pluggable freshness managers: Read-Through, Refresh-Ahead (default)
//     and Write-Through,
//   - single-flight executor runs arbitrated by a lock in the backing
//     store, with a per-call choice of what lock losers do (run the
//     executor themselves, or wait for the winner's result),
//   - an offline command queue that defers tag writes while the adapter is
//     disconnected and drains them on reconnect,
//   - a bounded-timeout wrapper on every adapter call.
//
// Components:
//   - adapter.StorageAdapter: the backing-store port (get/set/mget/mset,
//     locks, connection status and connect notifications).
//   - serializer.Serializer: text (de)serialization of caller values and
//     the record envelope. JSON is the default and the wire format.
//   - Storage / BaseStorage: record and tag semantics over the adapter.
//   - Cache: the façade that picks a manager by name.
//
// Keys (operator-visible):
//
//	<prefix>-<key>                          - record entries
//	<prefix>-cache-tags-versions:<tag>      - tag version entries
//	<effective key>_lock                    - single-flight locks
//
// With HashKeys enabled every effective key above is stored as its MD5 hex.
//
// Typical use:
//
//	cache, _ := cachalot.New(cachalot.Options{
//	    Adapter: redisAdapter,
//	    Logger:  logzap.Logger{L: zapLogger},
//	    Prefix:  "app",
//	})
//	value, err := cache.Get(ctx, "user:42", fetchUser, cachalot.GetOptions{
//	    SetOptions: cachalot.SetOptions{Tags: []string{"user:42"}},
//	})
//	_ = cache.Touch(ctx, []string{"user:42"}) // invalidate later
package cachalot

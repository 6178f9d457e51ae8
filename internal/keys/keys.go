// Package keys owns the storage-visible key layout: prefix joining,
// optional MD5 hashing and the logical prefix of tag version entries.
package keys

import (
	"crypto/md5"
	"encoding/hex"
)

// TagVersionPrefix is the logical prefix of tag version entries. The full
// tag key still goes through Effective, so it observes the same prefix and
// hashing policy as record keys.
const TagVersionPrefix = "cache-tags-versions:"

// Effective maps a logical key to the storage-visible one:
// "{prefix}-{key}" when prefix is non-empty, the key itself otherwise,
// then the MD5 hex of that when hashing is enabled. Hashing is one-way;
// there is no de-hash path.
func Effective(prefix, key string, hash bool) string {
	k := key
	if prefix != "" {
		k = prefix + "-" + key
	}
	if hash {
		sum := md5.Sum([]byte(k))
		return hex.EncodeToString(sum[:])
	}
	return k
}

// TagVersion returns the logical key of a tag's version entry.
func TagVersion(name string) string {
	return TagVersionPrefix + name
}

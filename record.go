package cachalot

import "time"

func nowMillis() int64 { return time.Now().UnixMilli() }

// Tag is a (name, version) pair participating in grouped invalidation.
// Versions are wall-clock milliseconds and only ever move forward; a tag
// missing from storage counts as version 0.
type Tag struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// Record is the envelope a cached value travels in. Field order matters:
// the JSON form is the wire format shared with deployed stores.
//
// Value holds the once-serialized payload; the stored envelope is that
// record serialized again (the value ends up double-encoded on the wire).
type Record struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Tags      []Tag  `json:"tags"`
	Permanent bool   `json:"permanent"`
	ExpiresIn int64  `json:"expiresIn"` // lifetime, ms; 0 = no time bound
	CreatedAt int64  `json:"createdAt"` // unix ms
}

// newRecord builds the envelope for an already-serialized value. A record
// with no value carries no tags, and expiresIn == 0 marks it permanent.
func newRecord(key, value string, tags []Tag, expiresIn time.Duration) *Record {
	if value == "" {
		tags = nil
	}
	if tags == nil {
		tags = make([]Tag, 0)
	}
	return &Record{
		Key:       key,
		Value:     value,
		Tags:      tags,
		Permanent: expiresIn == 0,
		ExpiresIn: expiresIn.Milliseconds(),
		CreatedAt: nowMillis(),
	}
}

// TimeExpired reports whether the record's lifetime has elapsed. Permanent
// records never expire by time.
func (r *Record) TimeExpired() bool {
	if r.Permanent {
		return false
	}
	return nowMillis() > r.CreatedAt+r.ExpiresIn
}

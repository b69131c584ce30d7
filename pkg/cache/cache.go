// Package cache memoizes query results behind fingerprints of the filter
// state that produced them.
//
// Entries never expire. Whoever changes the underlying data (the import
// pipeline, `gnotu cache clear`) must call Clear, a stale entry after a
// data reload is a defect. Concurrent callers may compute the same
// fingerprint at the same time, both writes store the same value and
// the last one wins.
package cache

import (
	"context"
	"encoding/gob"
	"log/slog"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/gnuuid"
	"github.com/google/uuid"
)

func init() {
	// Sample attributes keep dates in map[string]any.
	gob.Register(time.Time{})
}

// Cache stores encoded values by fingerprint. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the stored value. The second value is false on a miss.
	Get(ctx context.Context, fp Fingerprint) ([]byte, bool, error)

	// Set stores a value, replacing an existing one.
	Set(ctx context.Context, fp Fingerprint, val []byte) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// Fingerprint identifies a result set. It is a UUIDv5 of the canonical
// JSON form of the topic and filter state.
type Fingerprint uuid.UUID

// NewFingerprint creates a fingerprint for topic and a filter state.
// The state must already be canonical (sorted and deduplicated where
// order is irrelevant); NewFingerprint only serializes and hashes it.
func NewFingerprint(topic string, state any) (Fingerprint, error) {
	enc := gnfmt.GNjson{}
	key := struct {
		Topic string `json:"topic"`
		State any    `json:"state"`
	}{Topic: topic, State: state}
	bs, err := enc.Encode(key)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint(gnuuid.New(string(bs))), nil
}

func (f Fingerprint) String() string {
	return uuid.UUID(f).String()
}

// Fetch returns the cached value of fp or computes and stores it. Cache
// failures are logged and do not fail the call, the value is computed
// instead.
func Fetch[T any](
	ctx context.Context,
	c Cache,
	fp Fingerprint,
	compute func(context.Context) (T, error),
) (T, error) {
	enc := gnfmt.GNgob{}
	var res T

	if c == nil {
		c = Nop{}
	}

	bs, ok, err := c.Get(ctx, fp)
	switch {
	case err != nil:
		slog.Warn("Cannot read cache", "fingerprint", fp.String(), "error", err)
	case ok:
		if err = enc.Decode(bs, &res); err == nil {
			slog.Debug("Cache hit", "fingerprint", fp.String())
			return res, nil
		}
		slog.Warn("Cannot decode cached value",
			"fingerprint", fp.String(), "error", err)
	}

	slog.Debug("Cache miss", "fingerprint", fp.String())
	res, err = compute(ctx)
	if err != nil {
		return res, err
	}

	bs, err = enc.Encode(res)
	if err != nil {
		slog.Warn("Cannot encode value for cache",
			"fingerprint", fp.String(), "error", err)
		return res, nil
	}
	if err = c.Set(ctx, fp, bs); err != nil {
		slog.Warn("Cannot write cache", "fingerprint", fp.String(), "error", err)
	}
	return res, nil
}

// Nop is a cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, Fingerprint) ([]byte, bool, error) {
	return nil, false, nil
}

func (Nop) Set(context.Context, Fingerprint, []byte) error {
	return nil
}

func (Nop) Clear(context.Context) error {
	return nil
}

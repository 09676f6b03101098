// Package draft persists two-slot answer drafts in a key-value store.
package draft

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/kv"
)

// Store reads and writes drafts under one key prefix. All operations are
// serialized, so saves from the autosave timer never interleave with reads.
type Store struct {
	mu sync.Mutex

	kv     kv.Store
	codec  Codec
	schema Schema

	logger    zerolog.Logger
	onCorrupt func(*CorruptRecordError)
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithCorruptHandler is called for every record a listing skips. It runs with
// the store locked and must not call back into it.
func WithCorruptHandler(fn func(*CorruptRecordError)) Option {
	return func(s *Store) {
		s.onCorrupt = fn
	}
}

func NewStore(backend kv.Store, codec Codec, schema Schema, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		codec:  codec,
		schema: schema,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Codec() Codec {
	return s.codec
}

func (s *Store) Schema() Schema {
	return s.schema
}

// Save writes both slots for id, replacing any previous record. When neither
// slot has visible text nothing is written and saved is false.
func (s *Store) Save(id, slotA, slotB string) (saved bool, err error) {
	r := Record{SlotA: slotA, SlotB: slotB}.Normalized()
	if r.SlotA == "" && r.SlotB == "" {
		s.logger.Debug().Str("assignment_id", id).Msg("Attempt to save an empty draft")
		return false, nil
	}

	value, err := s.schema.Marshal(r)
	if err != nil {
		return false, err
	}

	key := s.codec.Encode(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(key, value); err != nil {
		return false, unavailable("save "+key, err)
	}
	s.logger.Debug().Str("key", key).Msg("Draft saved")
	return true, nil
}

// Load returns the record for id. found is false when no key exists.
func (s *Store) Load(id string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id, s.codec.Encode(id))
}

func (s *Store) load(id, key string) (Record, bool, error) {
	value, ok, err := s.kv.Get(key)
	if errors.Is(err, kv.ErrCorruptValue) {
		return Record{}, true, &CorruptRecordError{ID: id, Key: key, Err: err}
	}
	if err != nil {
		return Record{}, false, unavailable("load "+key, err)
	}
	if !ok {
		return Record{}, false, nil
	}

	r, err := s.schema.Unmarshal(value)
	if err != nil {
		return Record{}, true, &CorruptRecordError{ID: id, Key: key, Err: err}
	}
	return r, true, nil
}

// Exists reports whether a record is stored for id, without decoding it.
func (s *Store) Exists(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.kv.Get(s.codec.Encode(id))
	if errors.Is(err, kv.ErrCorruptValue) {
		return true, nil
	}
	if err != nil {
		return false, unavailable("exists", err)
	}
	return ok, nil
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.codec.Encode(id)
	if err := s.kv.Remove(key); err != nil {
		return unavailable("delete "+key, err)
	}
	s.logger.Debug().Str("key", key).Msg("Draft deleted")
	return nil
}

// DeleteAll removes every key under the prefix and returns how many it removed.
func (s *Store) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(s.codec.Prefix())
	if err != nil {
		return 0, unavailable("list", err)
	}

	removed := 0
	for _, key := range keys {
		if err := s.kv.Remove(key); err != nil {
			return removed, unavailable("delete "+key, err)
		}
		removed++
	}
	s.logger.Info().Int("count", removed).Str("prefix", s.codec.Prefix()).Msg("All drafts deleted")
	return removed, nil
}

// ListOthers returns every decodable record except the one for excludeID,
// sorted by SortEntries. Corrupt records are skipped and reported.
func (s *Store) ListOthers(excludeID string) ([]Entry, error) {
	return s.list(func(id string) bool { return id == excludeID })
}

// List returns every decodable record, sorted by SortEntries.
func (s *Store) List() ([]Entry, error) {
	return s.list(func(string) bool { return false })
}

func (s *Store) list(skip func(id string) bool) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(s.codec.Prefix())
	if err != nil {
		return nil, unavailable("list", err)
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		id, ok := s.codec.Decode(key)
		if !ok || skip(id) {
			continue
		}

		r, found, err := s.load(id, key)
		var corrupt *CorruptRecordError
		switch {
		case errors.As(err, &corrupt):
			s.logger.Warn().Err(corrupt.Err).Str("key", key).Msg("Skipping corrupt draft")
			if s.onCorrupt != nil {
				s.onCorrupt(corrupt)
			}
			continue
		case err != nil:
			return nil, err
		case !found:
			continue
		}

		entries = append(entries, Entry{ID: id, Key: key, Record: r})
	}

	SortEntries(entries)
	return entries, nil
}

package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerStore keeps message history in an in-memory badger instance so that
// entries can expire after a TTL. Nothing is written to disk.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewBadgerStore opens an in-memory badger database. A ttl of zero keeps
// messages for the life of the process.
func NewBadgerStore(ttl time.Duration, log zerolog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger history: %w", err)
	}
	return &BadgerStore{
		db:  db,
		ttl: ttl,
		log: log.With().Str("component", "history").Logger(),
	}, nil
}

func messageKey(id string) []byte {
	return []byte("msg:" + id)
}

// Record stores msg under msg:{id}, replacing any previous value.
func (s *BadgerStore) Record(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(messageKey(msg.ID), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Resolve looks a message up by id. Missing, expired and undecodable entries
// are all reported as not found.
func (s *BadgerStore) Resolve(id string) (Message, bool) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.log.Warn().Err(err).Str("message_id", id).Msg("history lookup failed")
		}
		return Message{}, false
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Warn().Err(err).Str("message_id", id).Msg("history entry is corrupt")
		return Message{}, false
	}
	return msg, true
}

// Len counts live entries with a key-only prefix scan.
func (s *BadgerStore) Len() int {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("history count failed")
		return 0
	}
	return count
}

// Close releases the badger instance.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Package badgerrepo stores the event log in an embedded Badger database
package badgerrepo

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// Key layout:
//
//	e/<domain>\x00<unix nanos, 8 bytes BE><sequence, 8 bytes BE>  -> eventValue JSON
//	s/seq                                                          -> last sequence, 8 bytes BE
//
// Iterating the e/ prefix yields each domain's events by timestamp, then by insertion order.
var (
	eventPrefix = []byte("e/")
	seqKey      = []byte("s/seq")
)

type eventValue struct {
	Action    model.Action `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
}

// BadgerRepository is a Badger implementation of model.EventStore
type BadgerRepository struct {
	db *badger.DB
}

// Open opens or creates the database in dir.
// Failures wrap model.ErrStoreConnect.
func Open(dir string) (*BadgerRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreConnect, err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger at %s: %v", model.ErrStoreConnect, dir, err)
	}
	return &BadgerRepository{db: db}, nil
}

func domainPrefix(domain string) []byte {
	k := make([]byte, 0, len(eventPrefix)+len(domain)+1)
	k = append(k, eventPrefix...)
	k = append(k, domain...)
	return append(k, 0)
}

func eventKey(domain string, ts time.Time, seq uint64) []byte {
	k := domainPrefix(domain)
	k = binary.BigEndian.AppendUint64(k, uint64(ts.UnixNano()))
	return binary.BigEndian.AppendUint64(k, seq)
}

// parseEventKey splits a key into domain and sequence
func parseEventKey(key []byte) (string, uint64, error) {
	rest := bytes.TrimPrefix(key, eventPrefix)
	sep := bytes.IndexByte(rest, 0)
	if sep < 0 || len(rest)-sep-1 != 16 {
		return "", 0, fmt.Errorf("malformed event key %q", key)
	}
	return string(rest[:sep]), binary.BigEndian.Uint64(rest[sep+9:]), nil
}

// ActiveRecords folds the latest event per domain
func (r *BadgerRepository) ActiveRecords(ctx context.Context) ([]model.ActiveRecord, error) {
	events, err := r.scan(eventPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain events: %w", err)
	}
	return model.ActiveRecordsFromEvents(events), nil
}

// Append writes all events in one transaction, numbering them from the stored sequence
func (r *BadgerRepository) Append(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, ev := range events {
		if !ev.Action.Valid() {
			return fmt.Errorf("invalid action %q for %s", ev.Action, ev.Domain)
		}
		if ev.Domain == "" || bytes.IndexByte([]byte(ev.Domain), 0) >= 0 {
			return fmt.Errorf("invalid event domain %q", ev.Domain)
		}
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(seqKey)
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return errors.New("invalid sequence value")
				}
				seq = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		for _, ev := range events {
			seq++
			val, err := json.Marshal(eventValue{Action: ev.Action, Timestamp: ev.Timestamp.UTC()})
			if err != nil {
				return err
			}
			if err := txn.Set(eventKey(ev.Domain, ev.Timestamp, seq), val); err != nil {
				return err
			}
		}

		return txn.Set(seqKey, binary.BigEndian.AppendUint64(nil, seq))
	})
	if err != nil {
		return fmt.Errorf("failed to write domain events: %w", err)
	}
	return nil
}

// History returns the events for one domain, oldest first
func (r *BadgerRepository) History(ctx context.Context, domain string) ([]model.Event, error) {
	events, err := r.scan(domainPrefix(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to read domain events: %w", err)
	}
	if len(events) == 0 {
		return nil, model.ErrNotFound
	}
	return events, nil
}

func (r *BadgerRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *BadgerRepository) scan(prefix []byte) ([]model.Event, error) {
	var events []model.Event
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			domain, seq, err := parseEventKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				var stored eventValue
				if err := json.Unmarshal(val, &stored); err != nil {
					return err
				}
				events = append(events, model.Event{
					ID:        strconv.FormatUint(seq, 10),
					Domain:    domain,
					Action:    stored.Action,
					Timestamp: stored.Timestamp,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return events, err
}

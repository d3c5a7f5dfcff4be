package ledger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	recordsBucket = []byte("records")
	metaBucket    = []byte("meta")

	totalKey = []byte("total")
)

type Op string

const (
	OpCapacity Op = "capacity"
	OpEncode   Op = "encode"
	OpDecode   Op = "decode"
	OpQR       Op = "qr"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected" // client error, nothing processed
	StatusFailed   Status = "failed"
)

// Record is one API call. Message text and passwords are never stored.
type Record struct {
	ID           string    `json:"id"`
	Op           Op        `json:"op"`
	Status       Status    `json:"status"`
	FileName     string    `json:"file_name,omitempty"`
	ImageBytes   int64     `json:"image_bytes,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Capacity     int       `json:"capacity,omitempty"`
	PayloadBytes int       `json:"payload_bytes,omitempty"`
	Encrypted    bool      `json:"encrypted,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats counts records per op and status.
type Stats struct {
	Total  uint64                `json:"total"`
	Stored int                   `json:"stored"`
	ByOp   map[Op]map[Status]int `json:"by_op"`
}

type Store interface {
	Close() error
	Put(rec *Record) error
	Recent(limit int) ([]Record, error)
	Stats() (Stats, error)
	Prune(olderThan time.Time) (int, error)
}

type BBoltStore struct {
	db *bolt.DB
}

func OpenBBolt(path string) (*BBoltStore, error) {
	if path == "" {
		return nil, errors.New("bbolt path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir ledger dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(recordsBucket); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(metaBucket); e != nil {
			return e
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BBoltStore{db: db}, nil
}

func (s *BBoltStore) Close() error {
	return s.db.Close()
}

// key orders records by creation time; the id suffix keeps keys unique
// when two records share a nanosecond.
func key(created time.Time, id string) []byte {
	k := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(k, uint64(created.UnixNano()))
	return append(k, id...)
}

func (s *BBoltStore) Put(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	k := key(rec.CreatedAt, rec.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(recordsBucket).Put(k, b); err != nil {
			return err
		}
		meta := tx.Bucket(metaBucket)
		return putUint64(meta, totalKey, getUint64(meta, totalKey)+1)
	})
}

// Recent returns up to limit records, newest first.
func (s *BBoltStore) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	out := make([]Record, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (s *BBoltStore) Stats() (Stats, error) {
	st := Stats{ByOp: map[Op]map[Status]int{}}
	err := s.db.View(func(tx *bolt.Tx) error {
		st.Total = getUint64(tx.Bucket(metaBucket), totalKey)
		return tx.Bucket(recordsBucket).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			if st.ByOp[rec.Op] == nil {
				st.ByOp[rec.Op] = map[Status]int{}
			}
			st.ByOp[rec.Op][rec.Status]++
			st.Stored++
			return nil
		})
	})
	return st, err
}

// Prune deletes records created before olderThan and returns how many were removed.
func (s *BBoltStore) Prune(olderThan time.Time) (int, error) {
	limit := make([]byte, 8)
	binary.BigEndian.PutUint64(limit, uint64(olderThan.UnixNano()))
	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()
		for k, _ := c.First(); k != nil && string(k[:8]) < string(limit); k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func putUint64(b *bolt.Bucket, key []byte, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return b.Put(key, buf[:])
}

func getUint64(b *bolt.Bucket, key []byte) uint64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

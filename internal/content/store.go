package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/storage"
)

// Store persists collections under a data directory.
type Store struct {
	dir   string
	locks storage.Locks
	now   func() time.Time

	mu      sync.Mutex
	written map[Kind][]byte // last bytes this store wrote per collection
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the collection file for kind.
func (s *Store) Path(kind Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

func (s *Store) seqPath(kind Kind) string {
	return filepath.Join(s.dir, string(kind)+".seq.json")
}

// Load returns the collection for kind, or an empty sequence when no file exists.
func (s *Store) Load(kind Kind) ([]Record, error) {
	path := s.Path(kind)
	// #nosec G304 -- path is built from the data dir and a known kind
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read collection").
			WithContext("kind", string(kind)).
			WithContext("path", path).
			Build()
	}
	return Decode(kind, data)
}

// Decode parses collection content. Malformed content, including duplicate ids, is an error.
func Decode(kind Kind, data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var seq []Record
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, malformed(kind, err)
	}
	if seq == nil {
		return nil, malformed(kind, fmt.Errorf("collection must be a JSON array"))
	}
	seen := make(map[int]bool, len(seq))
	for _, r := range seq {
		if seen[r.ID] {
			return nil, malformed(kind, fmt.Errorf("duplicate id %d", r.ID))
		}
		seen[r.ID] = true
	}
	return seq, nil
}

func malformed(kind Kind, cause error) error {
	return errors.WrapError(cause, errors.CategoryValidation, "malformed collection").
		Fatal().
		WithContext("kind", string(kind)).
		Build()
}

// Encode renders a collection as indented JSON with a trailing newline.
func Encode(seq []Record) ([]byte, error) {
	if seq == nil {
		seq = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(seq); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save overwrites the collection for kind with seq.
func (s *Store) Save(kind Kind, seq []Record) error {
	return s.locks.With(string(kind), func() error {
		last, err := s.lastIssued(kind)
		if err != nil {
			return err
		}
		return s.save(kind, seq, last)
	})
}

func (s *Store) save(kind Kind, seq []Record, lastIssued int) error {
	seen := make(map[int]bool, len(seq))
	for _, r := range seq {
		if seen[r.ID] {
			return errors.ValidationError(fmt.Sprintf("duplicate id %d", r.ID)).
				WithContext("kind", string(kind)).
				Build()
		}
		seen[r.ID] = true
	}

	data, err := Encode(seq)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode collection").
			WithContext("kind", string(kind)).
			Build()
	}
	path := s.Path(kind)
	if err := storage.WriteFileAtomic(path, data, storage.FileMode(path, 0o644)); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write collection").
			Fatal().
			WithContext("kind", string(kind)).
			WithContext("path", path).
			Build()
	}
	s.mu.Lock()
	if s.written == nil {
		s.written = make(map[Kind][]byte)
	}
	s.written[kind] = data
	s.mu.Unlock()

	if high := NextID(seq) - 1; high > lastIssued {
		lastIssued = high
	}
	return s.writeLastIssued(kind, lastIssued)
}

// OwnWrite reports whether the collection file still holds exactly the bytes
// this store last wrote, so a change notification for it came from this
// process.
func (s *Store) OwnWrite(kind Kind) bool {
	s.mu.Lock()
	want, ok := s.written[kind]
	s.mu.Unlock()
	if !ok {
		return false
	}
	// #nosec G304 -- path is built from the data dir and a known kind
	data, err := os.ReadFile(s.Path(kind))
	if err != nil {
		return false
	}
	return bytes.Equal(data, want)
}

type seqFile struct {
	LastID int `json:"last_id"`
}

func (s *Store) lastIssued(kind Kind) (int, error) {
	path := s.seqPath(kind)
	// #nosec G304 -- path is built from the data dir and a known kind
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to read id sequence").
			WithContext("kind", string(kind)).
			Build()
	}
	var sf seqFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return 0, malformed(kind, fmt.Errorf("id sequence: %w", err))
	}
	return sf.LastID, nil
}

func (s *Store) writeLastIssued(kind Kind, last int) error {
	data, err := json.Marshal(seqFile{LastID: last})
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := storage.WriteFileAtomic(s.seqPath(kind), data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write id sequence").
			WithContext("kind", string(kind)).
			Build()
	}
	return nil
}

// Tx is the mutable view of one collection inside Mutate.
type Tx struct {
	Kind    Kind
	Records []Record
	Now     time.Time
	last    int
}

// AllocateID returns an id that is unused and was never issued before.
func (tx *Tx) AllocateID() int {
	id := NextID(tx.Records)
	if tx.last+1 > id {
		id = tx.last + 1
	}
	tx.last = id
	return id
}

// Add creates a record from fields and appends it.
func (tx *Tx) Add(fields map[string]any) Record {
	rec := NewRecord(tx.Kind, tx.AllocateID(), fields, tx.Now)
	tx.Records = Insert(tx.Records, rec)
	return rec
}

// Update merges patch into the record with id.
func (tx *Tx) Update(id int, patch map[string]any) (Record, error) {
	current, ok := Find(tx.Records, id)
	if !ok {
		return Record{}, notFound(id)
	}
	rec := Merge(tx.Kind, current, patch, tx.Now)
	seq, err := Replace(tx.Records, rec)
	if err != nil {
		return Record{}, err
	}
	tx.Records = seq
	return rec, nil
}

// Delete removes the record with id.
func (tx *Tx) Delete(id int) (Record, error) {
	seq, removed, err := Remove(tx.Records, id)
	if err != nil {
		return Record{}, err
	}
	tx.Records = seq
	return removed, nil
}

// Mutate loads the collection, applies fn and saves the result while holding
// the collection's writer lock. Nothing is written when fn fails. The
// resulting sequence is returned.
func (s *Store) Mutate(kind Kind, fn func(tx *Tx) error) ([]Record, error) {
	var out []Record
	err := s.locks.With(string(kind), func() error {
		seq, err := s.Load(kind)
		if err != nil {
			return err
		}
		last, err := s.lastIssued(kind)
		if err != nil {
			return err
		}
		tx := &Tx{Kind: kind, Records: seq, Now: s.now(), last: last}
		if err := fn(tx); err != nil {
			return err
		}
		if err := s.save(kind, tx.Records, tx.last); err != nil {
			return err
		}
		out = tx.Records
		return nil
	})
	return out, err
}

// Add creates a record in kind and returns it with the updated collection.
func (s *Store) Add(kind Kind, fields map[string]any) (Record, []Record, error) {
	var rec Record
	seq, err := s.Mutate(kind, func(tx *Tx) error {
		rec = tx.Add(fields)
		return nil
	})
	return rec, seq, err
}

// Update applies a partial patch to the record with id.
func (s *Store) Update(kind Kind, id int, patch map[string]any) (Record, []Record, error) {
	var rec Record
	seq, err := s.Mutate(kind, func(tx *Tx) error {
		var uerr error
		rec, uerr = tx.Update(id, patch)
		return uerr
	})
	return rec, seq, err
}

// Delete removes the record with id.
func (s *Store) Delete(kind Kind, id int) (Record, []Record, error) {
	var rec Record
	seq, err := s.Mutate(kind, func(tx *Tx) error {
		var derr error
		rec, derr = tx.Delete(id)
		return derr
	})
	return rec, seq, err
}

// Package artifact holds locally downloadable byte blobs (previews and
// cleaned results) behind opaque handles. Every handle is created once and
// revoked once.
package artifact

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/google/uuid"
)

// Suffix is appended to the stem of every cleaned file name.
const Suffix = "-picscrub"

const handlePrefix = "blob:"

// Handle addresses one blob, e.g. "blob:3f0c…".
type Handle string

// ParseHandle accepts either the full handle or its bare ID.
func ParseHandle(s string) (Handle, bool) {
	id := strings.TrimPrefix(s, handlePrefix)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return Handle(handlePrefix + id), true
}

// ID returns the handle without its scheme, suitable for URLs.
func (h Handle) ID() string { return strings.TrimPrefix(string(h), handlePrefix) }

// Blob is a stored artifact.
type Blob struct {
	Data []byte
	MIME string
	Name string // suggested download name, may be empty
}

// Stats counts handle lifecycle events since the store was created.
type Stats struct {
	Created int `json:"created"`
	Revoked int `json:"revoked"`
	Live    int `json:"live"`
}

// Store is an in-memory, concurrency-safe blob store.
type Store struct {
	mu      sync.RWMutex
	blobs   map[Handle]Blob
	created int
	revoked int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{blobs: make(map[Handle]Blob)}
}

// Create stores data and returns a fresh handle.
func (s *Store) Create(data []byte, mime string) Handle {
	return s.CreateNamed(data, mime, "")
}

// CreateNamed is Create with a suggested download file name.
func (s *Store) CreateNamed(data []byte, mime, name string) Handle {
	h := Handle(handlePrefix + uuid.NewString())
	s.mu.Lock()
	s.blobs[h] = Blob{Data: data, MIME: mime, Name: name}
	s.created++
	s.mu.Unlock()
	return h
}

// Open returns the blob behind h.
func (s *Store) Open(h Handle) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[h]
	return b, ok
}

// Revoke releases h. It reports false if h was unknown or already revoked.
func (s *Store) Revoke(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[h]; !ok {
		return false
	}
	delete(s.blobs, h)
	s.revoked++
	return true
}

// Live returns the number of unrevoked handles.
func (s *Store) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Stats returns lifecycle counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Created: s.created, Revoked: s.revoked, Live: len(s.blobs)}
}

// FileName derives the download name for a cleaned file: the original stem,
// the picscrub suffix and the output format's extension.
func FileName(original string, format core.FormatID) string {
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "image"
	}
	return stem + Suffix + "." + format.Extension()
}

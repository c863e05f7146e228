package thumbs

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// RefScheme prefixes every display reference.
const RefScheme = "blob:"

// Refs holds image bytes behind short-lived display references. It is safe
// for concurrent use.
type Refs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	bytes int64
}

// NewRefs returns an empty registry.
func NewRefs() *Refs {
	return &Refs{blobs: make(map[string][]byte)}
}

// Create stores data and returns a new reference to it.
func (r *Refs) Create(data []byte) string {
	ref := RefScheme + uuid.NewString()
	r.mu.Lock()
	r.blobs[ref] = data
	r.bytes += int64(len(data))
	r.mu.Unlock()
	return ref
}

// Get returns the bytes behind ref.
func (r *Refs) Get(ref string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[ref]
	return data, ok
}

// Revoke releases ref. Revoking an unknown reference is a no-op.
func (r *Refs) Revoke(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if data, ok := r.blobs[ref]; ok {
		r.bytes -= int64(len(data))
		delete(r.blobs, ref)
	}
}

// RevokeAll releases every reference.
func (r *Refs) RevokeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.blobs)
	r.bytes = 0
}

// Len returns the number of live references.
func (r *Refs) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// Bytes returns the total size of the referenced data.
func (r *Refs) Bytes() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytes
}

// IsRef reports whether s looks like a display reference.
func IsRef(s string) bool {
	return strings.HasPrefix(s, RefScheme) && uuid.Validate(s[len(RefScheme):]) == nil
}

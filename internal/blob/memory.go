package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. It backs local development
// (BLOB_PROVIDER=memory) and the service tests. Objects are lost on restart.
//
// MemoryStore is also an http.Handler serving each object at its path, so
// the API can answer the URLs PublicURL hands out; mount it with the URL
// prefix stripped.
type MemoryStore struct {
	baseURL string

	mu      sync.Mutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Upload(_ context.Context, objectPath string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (s *MemoryStore) PublicURL(objectPath string) string {
	return s.baseURL + "/" + objectPath
}

func (s *MemoryStore) Copy(_ context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[from]
	if !ok {
		return fmt.Errorf("blob.MemoryStore.Copy: %s: object not found", from)
	}
	s.objects[to] = obj
	return nil
}

func (s *MemoryStore) RemovePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.objects {
		if strings.HasPrefix(p, prefix) {
			delete(s.objects, p)
		}
	}
	return nil
}

func (s *MemoryStore) PathFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// Has reports whether an object exists at objectPath.
func (s *MemoryStore) Has(objectPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectPath]
	return ok
}

// ContentType returns the stored content type for objectPath.
func (s *MemoryStore) ContentType(objectPath string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[objectPath].contentType
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// ServeHTTP writes the object whose path is r.URL.Path without its leading
// slash, or 404.
func (s *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	obj, ok := s.objects[strings.TrimPrefix(r.URL.Path, "/")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(obj.data))
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory implements Store in process memory. It backs tests and local
// development; payloads are normalized through JSON so decoding behaves the
// same as the Firestore implementation.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	queryWatch  []*queryWatcher
	docWatch    []*docWatcher
}

type queryWatcher struct {
	collection string
	filters    []Filter
	wake       chan struct{}
}

type docWatcher struct {
	collection string
	id         string
	wake       chan struct{}
}

func NewMemory() *Memory {
	return &Memory{collections: map[string]map[string]map[string]interface{}{}}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return memoryDocument(id, data), nil
}

func (m *Memory) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	id := uuid.New().String()
	return id, m.Set(ctx, collection, id, data)
}

func (m *Memory) Set(ctx context.Context, collection, id string, data interface{}) error {
	normalized, err := normalize(data)
	if err != nil {
		return err
	}
	doc, ok := normalized.(map[string]interface{})
	if !ok {
		return fmt.Errorf("document payload must be a struct or map, got %T", data)
	}

	m.mu.Lock()
	if m.collections[collection] == nil {
		m.collections[collection] = map[string]map[string]interface{}{}
	}
	m.collections[collection][id] = doc
	m.mu.Unlock()

	m.notify(collection, id)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, updates []Update) error {
	m.mu.Lock()
	doc, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for _, u := range updates {
		if err := applyUpdate(doc, u); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
		}
	}
	m.mu.Unlock()

	m.notify(collection, id)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	delete(m.collections[collection], id)
	m.mu.Unlock()

	m.notify(collection, id)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters []Filter) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryLocked(collection, filters), nil
}

func (m *Memory) queryLocked(collection string, filters []Filter) []Document {
	var docs []Document
	for id, data := range m.collections[collection] {
		if matchesAll(data, filters) {
			docs = append(docs, memoryDocument(id, data))
		}
	}
	return docs
}

func (m *Memory) Watch(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error) {
	w := &queryWatcher{collection: collection, filters: filters, wake: make(chan struct{}, 1)}
	m.mu.Lock()
	m.queryWatch = append(m.queryWatch, w)
	m.mu.Unlock()

	out := make(chan []Document)
	go func() {
		defer close(out)
		defer m.dropQueryWatcher(w)
		for {
			m.mu.RLock()
			docs := m.queryLocked(collection, filters)
			m.mu.RUnlock()
			select {
			case out <- docs:
			case <-ctx.Done():
				return
			}
			select {
			case <-w.wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *Memory) WatchDoc(ctx context.Context, collection, id string) (<-chan Document, error) {
	w := &docWatcher{collection: collection, id: id, wake: make(chan struct{}, 1)}
	m.mu.Lock()
	m.docWatch = append(m.docWatch, w)
	m.mu.Unlock()

	out := make(chan Document)
	go func() {
		defer close(out)
		defer m.dropDocWatcher(w)
		for {
			m.mu.RLock()
			data, ok := m.collections[collection][id]
			var doc Document
			if ok {
				doc = memoryDocument(id, data)
			} else {
				doc = Document{ID: id, Exists: false}
			}
			m.mu.RUnlock()
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
			select {
			case <-w.wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *Memory) notify(collection, id string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.queryWatch {
		if w.collection == collection {
			select {
			case w.wake <- struct{}{}:
			default:
			}
		}
	}
	for _, w := range m.docWatch {
		if w.collection == collection && w.id == id {
			select {
			case w.wake <- struct{}{}:
			default:
			}
		}
	}
}

func (m *Memory) dropQueryWatcher(w *queryWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.queryWatch {
		if cur == w {
			m.queryWatch = append(m.queryWatch[:i], m.queryWatch[i+1:]...)
			return
		}
	}
}

func (m *Memory) dropDocWatcher(w *docWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.docWatch {
		if cur == w {
			m.docWatch = append(m.docWatch[:i], m.docWatch[i+1:]...)
			return
		}
	}
}

func memoryDocument(id string, data map[string]interface{}) Document {
	// Snapshot the payload so later mutations do not leak into the reader.
	raw, _ := json.Marshal(data)
	return Document{
		ID:     id,
		Exists: true,
		decode: func(v interface{}) error {
			return json.Unmarshal(raw, v)
		},
	}
}

// normalize round-trips a value through JSON so stored payloads have the
// uniform shapes (map[string]interface{}, []interface{}, float64, string)
// that the filter and update code expects.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document payload: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document payload: %w", err)
	}
	return out, nil
}

func applyUpdate(doc map[string]interface{}, u Update) error {
	parent := doc
	segments := strings.Split(u.Path, ".")
	for _, seg := range segments[:len(segments)-1] {
		next, ok := parent[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			parent[seg] = next
		}
		parent = next
	}
	field := segments[len(segments)-1]

	switch tv := u.Value.(type) {
	case serverTimestamp:
		parent[field] = time.Now().UTC().Format(time.RFC3339Nano)
	case arrayUnion:
		arr, _ := parent[field].([]interface{})
		for _, v := range tv.values {
			nv, err := normalize(v)
			if err != nil {
				return err
			}
			if !containsValue(arr, nv) {
				arr = append(arr, nv)
			}
		}
		parent[field] = arr
	case arrayRemove:
		arr, _ := parent[field].([]interface{})
		kept := arr[:0]
		for _, cur := range arr {
			removed := false
			for _, v := range tv.values {
				nv, err := normalize(v)
				if err != nil {
					return err
				}
				if reflect.DeepEqual(cur, nv) {
					removed = true
					break
				}
			}
			if !removed {
				kept = append(kept, cur)
			}
		}
		parent[field] = kept
	default:
		nv, err := normalize(u.Value)
		if err != nil {
			return err
		}
		parent[field] = nv
	}
	return nil
}

func containsValue(arr []interface{}, v interface{}) bool {
	for _, cur := range arr {
		if reflect.DeepEqual(cur, v) {
			return true
		}
	}
	return false
}

func matchesAll(doc map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}

func matches(doc map[string]interface{}, f Filter) bool {
	field := lookupPath(doc, f.Path)
	want, err := normalize(f.Value)
	if err != nil {
		return false
	}
	switch f.Op {
	case "==":
		return reflect.DeepEqual(field, want)
	case ">=":
		cmp, ok := compareValues(field, want)
		return ok && cmp >= 0
	case "array-contains":
		arr, ok := field.([]interface{})
		return ok && containsValue(arr, want)
	default:
		return false
	}
}

func lookupPath(doc map[string]interface{}, path string) interface{} {
	var cur interface{} = doc
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[seg]
	}
	return cur
}

// compareValues orders two normalized values, preferring chronological
// comparison when both parse as timestamps.
func compareValues(a, b interface{}) (int, bool) {
	if ta, ok := parseTime(a); ok {
		if tb, ok2 := parseTime(b); ok2 {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if fa, ok := a.(float64); ok {
		if fb, ok2 := b.(float64); ok2 {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok2 := b.(string); ok2 {
			return strings.Compare(sa, sb), true
		}
	}
	return 0, false
}

func parseTime(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

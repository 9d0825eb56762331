package testutils

import (
	"context"
	"sync"
)

// MockExtractor records extraction requests so tests can assert the
// coordinator invokes the hook after storing a document.
type MockExtractor struct {
	// Err is returned from Extract when set.
	Err error

	mu   sync.Mutex
	docs map[string]string
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{docs: make(map[string]string)}
}

func (m *MockExtractor) Extract(_ context.Context, docID, content string) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	m.docs[docID] = content
	m.mu.Unlock()
	return nil
}

// Extracted returns the content recorded for a document id.
func (m *MockExtractor) Extracted(docID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.docs[docID]
	return content, ok
}

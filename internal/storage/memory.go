package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// Memory is an in-process Backend used to test orchestration without a
// file system. FailPut injects a write failure to exercise rollback.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
	Puts int
	// FailPut, when set, is returned by Put without storing anything.
	FailPut error
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func key(code string, format models.ContentFormat) string {
	return code + "." + models.ExtensionForFormat(format)
}

func (m *Memory) Put(code string, format models.ContentFormat, src Source) error {
	if (src.Bytes == nil) == (src.Path == "") {
		return fmt.Errorf("storage: exactly one of bytes or path required: %w", apperr.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	b := src.Bytes
	if b == nil {
		var err error
		b, err = os.ReadFile(src.Path)
		if err != nil {
			return fmt.Errorf("storage: read source: %w", err)
		}
	}
	m.data[key(code, format)] = append([]byte(nil), b...)
	m.Puts++
	return nil
}

func (m *Memory) Open(code string, format models.ContentFormat) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key(code, format)]
	if !ok {
		return nil, fmt.Errorf("storage: payload %s.%s: %w", code, format, apperr.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *Memory) Delete(code string, format models.ContentFormat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key(code, format))
	return nil
}

// Len reports how many payloads are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

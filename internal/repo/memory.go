package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// Memory is an in-process Repository used to test orchestration logic
// without a database. It runs the same prefix resolution as the SQLite
// implementation and supports fault injection on Delete to exercise the
// rollback-failure path.
type Memory struct {
	mu      sync.Mutex
	byHash  map[string]models.Item
	byCode  map[string]string // code -> hash_full
	Inserts int
	Deletes int
	// FailDelete, when set, is returned by Delete.
	FailDelete error
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		byHash: make(map[string]models.Item),
		byCode: make(map[string]string),
	}
}

func (m *Memory) FindByHash(_ context.Context, hashFull string) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byHash[hashFull]
	if !ok {
		return models.Item{}, fmt.Errorf("repo: item: %w", apperr.ErrNotFound)
	}
	return it, nil
}

func (m *Memory) FindByCode(_ context.Context, code string) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.byCode[code]
	if !ok {
		return models.Item{}, fmt.Errorf("repo: item: %w", apperr.ErrNotFound)
	}
	return m.byHash[hash], nil
}

func (m *Memory) Insert(_ context.Context, plan models.WritePlan, ownerID int64, vis models.Visibility) (models.Item, error) {
	if vis == "" {
		vis = models.VisibilityPublic
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHash[plan.HashFull]; ok {
		return models.Item{}, fmt.Errorf("repo: hash %s already inserted: %w", plan.HashFull, apperr.ErrAlreadyExists)
	}
	if plan.CodeMinLen < 1 || plan.CodeMinLen > len(plan.HashFull) {
		return models.Item{}, fmt.Errorf("repo: code min length %d out of range: %w", plan.CodeMinLen, apperr.ErrValidation)
	}

	var code string
	for l := plan.CodeMinLen; l <= len(plan.HashFull); l++ {
		prefix := plan.HashFull[:l]
		if _, taken := m.byCode[prefix]; !taken {
			code = prefix
			break
		}
	}
	if code == "" {
		return models.Item{}, fmt.Errorf("repo: no assignable prefix for %s: %w", plan.HashFull, apperr.ErrCodeCollision)
	}

	it := models.Item{
		Code:       code,
		HashFull:   plan.HashFull,
		Kind:       plan.Kind,
		SizeBytes:  plan.SizeBytes,
		OwnerID:    ownerID,
		Visibility: vis,
		UploadedAt: plan.UploadedAt,
		OriginAt:   plan.OriginAt,
	}
	switch plan.Kind {
	case models.KindText:
		it.Text = &models.TextInfo{Format: plan.Format}
	case models.KindPicture:
		it.Picture = &models.PictureInfo{Format: plan.Format, Width: plan.Width, Height: plan.Height}
	case models.KindLink:
		it.Link = &models.LinkInfo{URL: plan.LinkURL}
	}

	m.byHash[plan.HashFull] = it
	m.byCode[code] = plan.HashFull
	m.Inserts++
	return it, nil
}

func (m *Memory) Delete(_ context.Context, hashFull string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	m.Deletes++
	it, ok := m.byHash[hashFull]
	if !ok {
		return nil
	}
	delete(m.byCode, it.Code)
	delete(m.byHash, hashFull)
	return nil
}

// AllItems returns every stored item ordered by upload time.
func (m *Memory) AllItems(_ context.Context) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Item, 0, len(m.byHash))
	for _, it := range m.byHash {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt < out[j].UploadedAt })
	return out, nil
}

// Len reports how many items are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

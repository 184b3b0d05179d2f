package notestore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	domain "github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
)

// MemoryRepository is a simple in-memory store for notes.
// Notes live for the lifetime of the process only.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]domain.Note
}

// NewMemoryRepository constructs a note repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]domain.Note),
	}
}

func (r *MemoryRepository) Create(_ context.Context, note domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[note.ID] = note
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, note domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[note.ID]; !ok {
		return nil
	}
	r.data[note.ID] = note
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (domain.Note, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.data[id]
	if !ok {
		return domain.Note{}, false, nil
	}
	return note, true, nil
}

// List returns all notes, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Note, 0, len(r.data))
	for _, note := range r.data {
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ domain.NoteRepository = (*MemoryRepository)(nil)

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/resumetailor/pkg/models"
)

// Memory is an in-process Store used when no database is configured
type Memory struct {
	mu           sync.RWMutex
	nextAppID    int64
	nextResumeID int64
	applications map[int64]models.Application
	resumes      map[int64]models.SavedResume
	now          func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		applications: make(map[int64]models.Application),
		resumes:      make(map[int64]models.SavedResume),
		now:          time.Now,
	}
}

func (m *Memory) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := validateApplication(app); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAppID++
	app.ID = m.nextAppID
	if app.DateApplied.IsZero() {
		app.DateApplied = m.now()
	}
	m.applications[app.ID] = *app
	return nil
}

// ListApplications returns applications newest first
func (m *Memory) ListApplications(ctx context.Context) ([]models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Application, 0, len(m.applications))
	for _, app := range m.applications {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateApplied.Equal(out[j].DateApplied) {
			return out[i].DateApplied.After(out[j].DateApplied)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.applications[id]
	if !ok {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return &app, nil
}

func (m *Memory) UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	app.Status = status
	m.applications[id] = app
	return nil
}

func (m *Memory) DeleteApplication(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.applications[id]; !ok {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	delete(m.applications, id)
	return nil
}

func (m *Memory) CreateResume(ctx context.Context, r *models.SavedResume) error {
	if err := validateResume(r); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextResumeID++
	now := m.now()
	r.ID = m.nextResumeID
	r.CreatedAt, r.UpdatedAt = now, now
	stored := *r
	stored.TailoredSections = models.CloneSections(r.TailoredSections)
	m.resumes[r.ID] = stored
	return nil
}

func (m *Memory) GetResume(ctx context.Context, id int64) (*models.SavedResume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.resumes[id]
	if !ok {
		return nil, fmt.Errorf("resume %d: %w", id, ErrNotFound)
	}
	r.TailoredSections = models.CloneSections(r.TailoredSections)
	return &r, nil
}

func (m *Memory) UpdateResume(ctx context.Context, r *models.SavedResume) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.resumes[r.ID]
	if !ok {
		return fmt.Errorf("resume %d: %w", r.ID, ErrNotFound)
	}
	stored.TailoredText = r.TailoredText
	stored.TailoredSections = models.CloneSections(r.TailoredSections)
	stored.UpdatedAt = m.now()
	m.resumes[r.ID] = stored

	*r = stored
	r.TailoredSections = models.CloneSections(stored.TailoredSections)
	return nil
}

// Close is a no-op
func (m *Memory) Close() error { return nil }

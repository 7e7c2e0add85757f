package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/features/users/domain"

	"github.com/stretchr/testify/mock"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]domain.User)}
}

func (r *memRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.ErrDuplicateKey
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (r *memRepo) Save(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("User not found")
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) TouchLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	u.LastLogin = &at
	r.users[id] = u
	return nil
}

func (r *memRepo) List(_ context.Context, q domain.Query) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(u.Name+u.Email+u.Phone), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	start := min(q.Offset(), len(out))
	end := min(start+q.Limit, len(out))
	return out[start:end], total, nil
}

type MockStats struct {
	mock.Mock
}

func (m *MockStats) CustomerStats(ctx context.Context, id string) ([]domain.StatusCount, error) {
	args := m.Called(ctx, id)
	rows, _ := args.Get(0).([]domain.StatusCount)
	return rows, args.Error(1)
}

func (m *MockStats) AgentStats(ctx context.Context, id string) ([]domain.StatusCount, error) {
	args := m.Called(ctx, id)
	rows, _ := args.Get(0).([]domain.StatusCount)
	return rows, args.Error(1)
}

func (m *MockStats) HasActiveParcels(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type memImages struct {
	mu      sync.Mutex
	files   map[string][]byte
	removed []string
}

func (m *memImages) Save(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	path := "/uploads/profiles/" + name
	m.files[path] = data
	return path, nil
}

func (m *memImages) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.removed = append(m.removed, path)
	return nil
}

type welcomes struct {
	mu   sync.Mutex
	sent []identity.Contact
}

func (w *welcomes) Welcome(_ context.Context, to identity.Contact) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, to)
	return nil
}

func jsonDecode(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

package ui

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/internal/errors"
	"redevdash/models"

	"github.com/google/uuid"
)

type memProjects struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]*models.Project
	down     bool
}

func newMemProjects() *memProjects {
	return &memProjects{nextID: 1, projects: make(map[int64]*models.Project)}
}

func (m *memProjects) active() []models.Project {
	out := []models.Project{}
	for _, p := range m.projects {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memProjects) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Project{}
	for _, p := range m.active() {
		if filter.ISO != "" && p.Get("iso") != filter.ISO {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memProjects) Count(ctx context.Context, filter models.ProjectFilter) (int, error) {
	list, err := m.List(ctx, filter)
	return len(list), err
}

func (m *memProjects) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || !p.IsActive {
		return nil, errors.NotFound("project")
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) GetByName(ctx context.Context, name string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.active() {
		if strings.EqualFold(p.Name(), name) {
			cp := p
			return &cp, nil
		}
	}
	return nil, errors.NotFound("project")
}

func (m *memProjects) GetByExcelRowID(ctx context.Context, rowID string) (*models.Project, error) {
	return nil, errors.NotFound("project")
}

func (m *memProjects) Create(ctx context.Context, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Project{ID: m.nextID, Values: values, IsActive: true, CreatedBy: meta.Actor, UpdatedBy: meta.Actor, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.projects[p.ID] = p
	m.nextID++
	cp := *p
	return &cp, nil
}

func (m *memProjects) Update(ctx context.Context, id int64, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || !p.IsActive {
		return nil, errors.NotFound("project")
	}
	for k, v := range values {
		p.Values[k] = v
	}
	p.UpdatedBy = meta.Actor
	cp := *p
	return &cp, nil
}

func (m *memProjects) SoftDelete(ctx context.Context, id int64, meta models.RequestMeta) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || !p.IsActive {
		return nil, errors.NotFound("project")
	}
	p.IsActive = false
	cp := *p
	return &cp, nil
}

func (m *memProjects) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.DashboardStats{TotalProjects: len(m.active())}, nil
}

func (m *memProjects) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	return &models.FilterOptions{ISOs: []string{"ERCOT", "PJM"}}, nil
}

func (m *memProjects) Ping(ctx context.Context) models.ConnectionStatus {
	if m.down {
		return models.ConnectionStatus{Connected: false, Error: "connection refused"}
	}
	return models.ConnectionStatus{Connected: true, Timestamp: time.Now()}
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	audit []string
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (m *memUsers) put(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *memUsers) CreatePending(ctx context.Context, user *models.User, meta models.RequestMeta) error {
	user.Status = models.UserStatusPending
	m.put(user)
	return m.Audit(ctx, &user.ID, models.AuditRegistrationRequest, nil, meta)
}

func (m *memUsers) Exists(ctx context.Context, username, email string) (bool, error) {
	_, err := m.find(func(u *models.User) bool { return u.Username == username || u.Email == email })
	return err == nil, nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetByApprovalToken(ctx context.Context, token string) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return u.ApprovalToken != nil && *u.ApprovalToken == token && u.Status == models.UserStatusPending
	})
}

func (m *memUsers) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
	})
}

func (m *memUsers) Activate(ctx context.Context, id uuid.UUID, approvedBy string, meta models.RequestMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.NotFound("pending user")
	}
	u.Status = models.UserStatusActive
	u.ApprovalToken = nil
	m.audit = append(m.audit, models.AuditAccountApproved)
	return nil
}

func (m *memUsers) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.PasswordHash = hash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (m *memUsers) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (m *memUsers) ListPending(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if u.Status == models.UserStatusPending {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) Audit(ctx context.Context, userID *uuid.UUID, action string, details models.JSONBMap, meta models.RequestMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, action)
	return nil
}

type nopNotifier struct {
	links []string
}

func (n *nopNotifier) RegistrationReceived(context.Context, *models.User) error { return nil }

func (n *nopNotifier) ApprovalRequested(_ context.Context, _ *models.User, link string) error {
	n.links = append(n.links, link)
	return nil
}

func (n *nopNotifier) AccountApproved(context.Context, *models.User) error { return nil }

func (n *nopNotifier) PasswordResetRequested(_ context.Context, _ *models.User, link string) error {
	n.links = append(n.links, link)
	return nil
}

type staticSource struct {
	batch pipeline.Batch
}

func (s staticSource) Load(context.Context) (pipeline.Batch, error) { return s.batch, nil }

func (s staticSource) Name() string { return "static" }

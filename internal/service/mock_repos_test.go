package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Nefnief-tech/gardes-v2/internal/model"
	"github.com/Nefnief-tech/gardes-v2/pkg/events"
)

// ── Mock LocalSubjectStore ──

type mockLocalStore struct {
	subjects  []model.Subject // nil 表示尚无存储
	saveErr   error
	saveCalls int
}

func newMockLocalStore(subjects []model.Subject) *mockLocalStore {
	return &mockLocalStore{subjects: model.CloneSubjects(subjects)}
}

func (m *mockLocalStore) Load(_ context.Context) []model.Subject {
	if m.subjects == nil {
		m.subjects = model.DefaultSubjects()
	}
	return model.MigrateSubjects(m.subjects)
}

func (m *mockLocalStore) Save(_ context.Context, subjects []model.Subject) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.subjects = model.CloneSubjects(subjects)
	return nil
}

func (m *mockLocalStore) Clear(_ context.Context) error {
	m.subjects = nil
	return nil
}

// ── Mock CloudMirror ──

type mockCloudMirror struct {
	data       map[string][]model.Subject
	fetchErr   error
	pushErr    error
	pushResult bool
	panicFetch bool
	fetchCalls int
	pushCalls  int
}

func newMockCloudMirror() *mockCloudMirror {
	return &mockCloudMirror{data: make(map[string][]model.Subject), pushResult: true}
}

func (m *mockCloudMirror) Fetch(_ context.Context, userID string) ([]model.Subject, error) {
	m.fetchCalls++
	if m.panicFetch {
		panic("connection reset")
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return model.CloneSubjects(m.data[userID]), nil
}

func (m *mockCloudMirror) Push(_ context.Context, userID string, subjects []model.Subject) (bool, error) {
	m.pushCalls++
	if m.pushErr != nil {
		return false, m.pushErr
	}
	if m.pushResult {
		m.data[userID] = model.CloneSubjects(subjects)
	}
	return m.pushResult, nil
}

// ── Mock AccountRepository ──

type mockAccountRepo struct {
	users map[string]*model.CloudUser // key: user_id 或 "email:"+email
	err   error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{users: make(map[string]*model.CloudUser)}
}

func (m *mockAccountRepo) Create(_ context.Context, user *model.CloudUser) error {
	if m.err != nil {
		return m.err
	}
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (*model.CloudUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountRepo) GetByEmail(_ context.Context, email string) (*model.CloudUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountRepo) UpdateSyncPreference(_ context.Context, id string, enabled bool) error {
	if m.err != nil {
		return m.err
	}
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.SyncEnabled = enabled
	return nil
}

// ── Mock Publisher / Blacklist ──

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) snapshot() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

type mockBlacklist struct {
	tokens map[string]time.Duration
	err    error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[jti] = ttl
	return nil
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/store"
	"github.com/notewave/collab-note-service/pkg/app"

	"gorm.io/gorm"
)

// memStore 内存版 store.Store，按字段名合并更新并打 updatedAt 戳
type memStore struct {
	mu        sync.Mutex
	notes     map[string]*domain.Note
	nextStamp int64
	updateErr error
	updates   int
}

func newMemStore(notes ...*domain.Note) *memStore {
	s := &memStore{notes: make(map[string]*domain.Note), nextStamp: 1000}
	for _, n := range notes {
		s.notes[n.ID] = n.Clone()
	}
	return s
}

func (s *memStore) stamp() int64 {
	s.nextStamp++
	return s.nextStamp
}

func (s *memStore) Subscribe(ctx context.Context, q store.Query) (store.Subscription, error) {
	return nil, errors.New("not supported")
}

func (s *memStore) GetOnce(ctx context.Context, id string) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return n.Clone(), nil
}

func (s *memStore) Create(ctx context.Context, note *domain.Note) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := note.Clone()
	if n.ID == "" {
		n.ID = "note-gen"
	}
	n.CreatedAt = s.stamp()
	n.UpdatedAt = n.CreatedAt
	s.notes[n.ID] = n
	return n.ID, nil
}

func (s *memStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	n, ok := s.notes[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			n.Title = v.(string)
		case "content":
			n.Content = v.(string)
		case "pinned":
			n.Pinned = v.(bool)
		case "collaborators":
			n.Collaborators = v.([]domain.Collaborator)
		case "collaboratorEmails":
			n.CollaboratorEmails = v.([]string)
		}
	}
	n.UpdatedAt = s.stamp()
	s.updates++
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *memStore) get(id string) *domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notes[id]; ok {
		return n.Clone()
	}
	return nil
}

var _ store.Store = (*memStore)(nil)

// memUserRepo 内存版用户仓储
type memUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	byUID   map[string]*domain.User
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	r := &memUserRepo{
		byEmail: make(map[string]*domain.User),
		byUID:   make(map[string]*domain.User),
	}
	for _, u := range users {
		r.byEmail[u.Email] = u
		r.byUID[u.UID] = u
	}
	return r
}

func (r *memUserRepo) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byUID[uid]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, errors.New("duplicate email")
	}
	r.byEmail[user.Email] = user
	r.byUID[user.UID] = user
	return user, nil
}

var _ domain.UserRepository = (*memUserRepo)(nil)

// memShareRepo 内存版分享链接仓储
type memShareRepo struct {
	mu      sync.Mutex
	byToken map[string]*domain.ShareLink
	nextID  int64
}

func newMemShareRepo(links ...*domain.ShareLink) *memShareRepo {
	r := &memShareRepo{byToken: make(map[string]*domain.ShareLink)}
	for _, l := range links {
		r.byToken[l.Token] = l
	}
	return r
}

func (r *memShareRepo) GetByToken(ctx context.Context, token string) (*domain.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.byToken[token]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memShareRepo) Create(ctx context.Context, link *domain.ShareLink) (*domain.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	link.ID = r.nextID
	r.byToken[link.Token] = link
	return link, nil
}

func (r *memShareRepo) DeleteByNoteID(ctx context.Context, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, l := range r.byToken {
		if l.NoteID == noteID {
			delete(r.byToken, token)
		}
	}
	return nil
}

func (r *memShareRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for token, l := range r.byToken {
		if l.Expired(now) {
			delete(r.byToken, token)
			purged++
		}
	}
	return purged, nil
}

func (r *memShareRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

var _ domain.ShareRepository = (*memShareRepo)(nil)

// recordMailer 记录发出的邀请
type recordMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordMailer) SendInvitation(toEmail, inviterName, noteTitle, permission string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
}

func (m *recordMailer) invitations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

var _ Mailer = (*recordMailer)(nil)

// fakeTokenManager 固定 token 的签发器
type fakeTokenManager struct {
	fail bool
}

func (m *fakeTokenManager) Generate(uid, email, ip string) (string, error) {
	if m.fail {
		return "", errors.New("sign failed")
	}
	return "token-" + uid, nil
}

func (m *fakeTokenManager) Parse(token string) (*app.UserEntity, error) {
	return nil, errors.New("not supported")
}

func (m *fakeTokenManager) Validate(token string) error { return nil }

func (m *fakeTokenManager) GetSecretKey() string { return "test-secret" }

var _ app.TokenManager = (*fakeTokenManager)(nil)

func testConfig() *ServiceConfig {
	c := &ServiceConfig{RegisterIsOpen: true}
	c.Normalize()
	return c
}

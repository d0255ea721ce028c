package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"authentication_api/internal/models"
)

type memoryData struct {
	nextID int64
	users  map[int64]models.User
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{nextID: d.nextID, users: make(map[int64]models.User, len(d.users))}
	for id, u := range d.users {
		c.users[id] = copyUser(u)
	}
	return c
}

// MemoryStore keeps users in process memory with the same uniqueness rules
// as the SQL schema. Writers are serialized by txMu; InTx stages its writes
// on a copy and publishes it only when fn succeeds.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *memoryData
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{nextID: 1, users: make(map[int64]models.User)},
		now:  time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Users() UserRepo {
	return &memoryUsers{store: s}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, users UserRepo) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &memoryUsers{staged: staged, now: s.now}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = staged
	s.mu.Unlock()
	return nil
}

// memoryUsers either works on the live store or on a staged transaction copy.
type memoryUsers struct {
	store  *MemoryStore
	staged *memoryData
	now    func() time.Time
}

func (m *memoryUsers) read(fn func(d *memoryData)) {
	if m.staged != nil {
		fn(m.staged)
		return
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	fn(m.store.data)
}

func (m *memoryUsers) write(fn func(d *memoryData, now time.Time) error) error {
	if m.staged != nil {
		return fn(m.staged, m.now().UTC())
	}
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return fn(m.store.data, m.store.now().UTC())
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	var found []models.User
	m.read(func(d *memoryData) {
		for _, u := range d.users {
			if u.Username == username {
				found = append(found, copyUser(u))
			}
		}
	})
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("select user %q: %w: %d rows share the username", username, ErrConflict, len(found))
	}
}

func (m *memoryUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	var out *models.User
	m.read(func(d *memoryData) {
		if u, ok := d.users[id]; ok {
			c := copyUser(u)
			out = &c
		}
	})
	return out, nil
}

func (m *memoryUsers) Insert(_ context.Context, u models.User) (models.User, error) {
	err := m.write(func(d *memoryData, now time.Time) error {
		if usernameTaken(d, u.Username, 0) {
			return fmt.Errorf("insert user %q: %w", u.Username, ErrConflict)
		}
		u.ID = d.nextID
		d.nextID++
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = copyUser(u)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (m *memoryUsers) Update(_ context.Context, u models.User) error {
	return m.write(func(d *memoryData, now time.Time) error {
		cur, ok := d.users[u.ID]
		if !ok {
			return fmt.Errorf("update user %d: %w", u.ID, ErrNotFound)
		}
		if usernameTaken(d, u.Username, u.ID) {
			return fmt.Errorf("update user %d: %w", u.ID, ErrConflict)
		}
		u.CreatedAt = cur.CreatedAt
		u.UpdatedAt = now
		d.users[u.ID] = copyUser(u)
		return nil
	})
}

func (m *memoryUsers) Delete(_ context.Context, id int64) error {
	return m.write(func(d *memoryData, _ time.Time) error {
		if _, ok := d.users[id]; !ok {
			return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
		}
		delete(d.users, id)
		return nil
	})
}

func (m *memoryUsers) ListAll(_ context.Context) ([]models.User, error) {
	var out []models.User
	m.read(func(d *memoryData) {
		out = make([]models.User, 0, len(d.users))
		for _, u := range d.users {
			out = append(out, copyUser(u))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func usernameTaken(d *memoryData, username string, exceptID int64) bool {
	for id, u := range d.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

func copyUser(u models.User) models.User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	return u
}

// AuditMemory is an in-process AuditRepo.
type AuditMemory struct {
	mu     sync.RWMutex
	events []models.AuditEvent
}

func NewAuditMemory() *AuditMemory { return &AuditMemory{} }

var _ AuditRepo = (*AuditMemory)(nil)

func (r *AuditMemory) Append(_ context.Context, e models.AuditEvent) error {
	e = normalizeEvent(e)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *AuditMemory) List(_ context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error) {
	typ = strings.ToUpper(strings.TrimSpace(typ))
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.AuditEvent, 0, len(r.events))
	for _, e := range r.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (r *AuditMemory) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var removed int64
	for _, e := range r.events {
		if e.OccurredAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return removed, nil
}

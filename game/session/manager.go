package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/level"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds random id generation before giving up
const maxIDAttempts = 32

// Manager handles session lifecycle. Ids are case-insensitive.
type Manager struct {
	sessions    map[string]*Session
	persistence SessionPersistence
	opts        Options
	mu          sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts.withDefaults(),
	}
}

// NewManagerWithPersistence creates a session manager that saves sessions
func NewManagerWithPersistence(persistence SessionPersistence, opts Options) *Manager {
	m := NewManager(opts)
	m.persistence = persistence
	return m
}

// Create builds a session for lvl and starts its tick source. An empty id
// gets a random 4-character hex id.
func (m *Manager) Create(id string, lvl *level.Level, player Player) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		generated, err := m.generateSessionID()
		if err != nil {
			return nil, err
		}
		id = generated
	}
	if strings.TrimSpace(id) != id || strings.ContainsAny(id, "/\\.") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	sess, err := New(id, lvl, player, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[strings.ToLower(id)] = sess
	sess.Start()

	log.WithFields(log.Fields{
		"session":  id,
		"level_id": lvl.ID,
		"player":   player.Username,
	}).Info("[SESSION] created")

	if m.persistence != nil {
		if err := m.persistence.Save(sess.record()); err != nil {
			log.WithError(err).WithField("session", id).Warn("[SESSION] failed to persist new session")
		}
	}

	return sess, nil
}

// Get retrieves a session, loading it from persistence when it is not in memory
func (m *Manager) Get(id string) (*Session, error) {
	key := strings.ToLower(id)

	m.mu.RLock()
	sess, exists := m.sessions[key]
	m.mu.RUnlock()
	if exists {
		return sess, nil
	}

	if m.persistence == nil || !m.persistence.Exists(key) {
		return nil, ErrSessionNotFound
	}

	data, err := m.persistence.Load(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	if data.Cleared {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, exists := m.sessions[key]; exists {
		return sess, nil
	}
	sess, err = restore(data, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[key] = sess
	sess.Start()
	return sess, nil
}

// List returns all in-memory sessions, oldest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete closes a session and removes it from memory and persistence
func (m *Manager) Delete(id string) error {
	key := strings.ToLower(id)

	m.mu.Lock()
	sess, inMemory := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if inMemory {
		sess.Close()
	}

	if m.persistence != nil && m.persistence.Exists(key) {
		if err := m.persistence.Delete(key); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// UpdateLastAccessed marks a session as used
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}
	sess.Touch()
	return nil
}

// Save writes a session to persistence. Cleared sessions are removed from
// storage instead since their result has already been reported.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	data := sess.record()
	if data.Cleared {
		if m.persistence.Exists(data.ID) {
			return m.persistence.Delete(data.ID)
		}
		return nil
	}
	return m.persistence.Save(data)
}

// CleanupExpiredSessions closes and removes sessions that haven't been
// accessed within maxAge
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*Session
	for key, sess := range m.sessions {
		if sess.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		if m.persistence != nil && m.persistence.Exists(sess.ID) {
			if err := m.persistence.Delete(sess.ID); err != nil {
				log.WithError(err).WithField("session", sess.ID).Warn("[SESSION] failed to delete expired session")
			}
		}
	}

	return len(expired)
}

// Count returns the number of in-memory sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll stops every session's tick source, saving active ones first
func (m *Manager) CloseAll() {
	if err := m.SaveAllSessions(); err != nil {
		log.WithError(err).Warn("[SESSION] failed to save sessions on shutdown")
	}

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for key, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// LoadPersistedSessions restores all saved active sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, id := range ids {
		m.mu.RLock()
		_, exists := m.sessions[strings.ToLower(id)]
		m.mu.RUnlock()
		if exists {
			continue
		}

		if _, err := m.Get(id); err != nil {
			log.WithError(err).WithField("session", id).Warn("[SESSION] failed to load persisted session")
			continue
		}
		loaded++
	}

	if loaded > 0 {
		log.Infof("[SESSION] loaded %d persisted sessions from storage", loaded)
	}
	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for key := range m.sessions {
		ids = append(ids, key)
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, id := range ids {
		if err := m.Save(id); err != nil {
			log.WithError(err).WithField("session", id).Warn("[SESSION] failed to save session")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}
	return nil
}

// generateSessionID returns an unused 4-character hex id; callers hold mu
func (m *Manager) generateSessionID() (string, error) {
	bytes := make([]byte, 2)
	for i := 0; i < maxIDAttempts; i++ {
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate session id: %w", err)
		}
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; exists {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: id space exhausted", ErrInvalidSessionID)
}

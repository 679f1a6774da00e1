package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"top-ten/internal/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sessionCookieName = "tt_session"

var errSessionNotFound = errors.New("session not found")

type sessionStore struct {
	db       *gorm.DB
	ttl      time.Duration
	mu       sync.Mutex
	sessions map[string]sessionData
}

// sessionData is the per-client context: the signed-in user plus the group,
// round and judge flag the client is playing with.
type sessionData struct {
	UserID        string
	GroupID       string
	RoundID       string
	IsJudge       bool
	CategoryIndex int
	ExpiresAt     time.Time
}

func newSessionStore(conn *gorm.DB, ttl time.Duration) *sessionStore {
	return &sessionStore{
		db:       conn,
		ttl:      ttl,
		sessions: make(map[string]sessionData),
	}
}

func (s *sessionStore) Create(userID string) (string, sessionData, error) {
	id := newSessionID()
	data := sessionData{
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.save(id, data); err != nil {
		return "", sessionData{}, err
	}
	return id, data, nil
}

func (s *sessionStore) Get(id string) (sessionData, error) {
	if id == "" {
		return sessionData{}, errSessionNotFound
	}
	var data sessionData
	if s.db == nil {
		s.mu.Lock()
		stored, ok := s.sessions[id]
		s.mu.Unlock()
		if !ok {
			return sessionData{}, errSessionNotFound
		}
		data = stored
	} else {
		var record db.Session
		if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return sessionData{}, errSessionNotFound
			}
			return sessionData{}, err
		}
		data = sessionFromRecord(record)
	}
	if time.Now().UTC().After(data.ExpiresAt) {
		return sessionData{}, errSessionNotFound
	}
	return data, nil
}

func (s *sessionStore) Update(id string, update func(data *sessionData)) (sessionData, error) {
	data, err := s.Get(id)
	if err != nil {
		return sessionData{}, err
	}
	update(&data)
	if err := s.save(id, data); err != nil {
		return sessionData{}, err
	}
	return data, nil
}

func (s *sessionStore) Delete(id string) error {
	if s.db == nil {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil
	}
	return s.db.Where("id = ?", id).Delete(&db.Session{}).Error
}

// PruneExpired removes sessions past their expiry and reports how many went.
func (s *sessionStore) PruneExpired(now time.Time) (int64, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		var removed int64
		for id, data := range s.sessions {
			if now.After(data.ExpiresAt) {
				delete(s.sessions, id)
				removed++
			}
		}
		return removed, nil
	}
	result := s.db.Where("expires_at < ?", now).Delete(&db.Session{})
	return result.RowsAffected, result.Error
}

func (s *sessionStore) save(id string, data sessionData) error {
	if s.db == nil {
		s.mu.Lock()
		s.sessions[id] = data
		s.mu.Unlock()
		return nil
	}
	record := db.Session{
		ID:            id,
		UserID:        data.UserID,
		GroupID:       data.GroupID,
		RoundID:       data.RoundID,
		IsJudge:       data.IsJudge,
		CategoryIndex: data.CategoryIndex,
		ExpiresAt:     data.ExpiresAt,
	}
	return s.db.Save(&record).Error
}

func sessionFromRecord(record db.Session) sessionData {
	return sessionData{
		UserID:        record.UserID,
		GroupID:       record.GroupID,
		RoundID:       record.RoundID,
		IsJudge:       record.IsJudge,
		CategoryIndex: record.CategoryIndex,
		ExpiresAt:     record.ExpiresAt,
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func newSessionID() string {
	return uuid.NewString()
}

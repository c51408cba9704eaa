// sessions.go — хранилище контроллеров сессий браузеров.
// LRU с TTL на hashicorp/golang-lru/v2/expirable: у каждой сессии
// свой Controller, неактивные сессии вытесняются по TTL или размеру.
// TTL отсчитывается от последнего обращения: каждый hit продлевает сессию.
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ControllerFactory создаёт контроллер новой сессии.
type ControllerFactory func() *Controller

// SessionStore — in-memory хранилище контроллеров по ID сессии.
// Каждый экземпляр приложения имеет собственное хранилище.
type SessionStore struct {
	cache   *expirable.LRU[string, *Controller]
	factory ControllerFactory
}

// NewSessionStore создаёт хранилище с указанным максимальным размером и TTL.
// При вытеснении контроллер закрывается (останавливаются его таймеры).
func NewSessionStore(maxSize int, ttl time.Duration, factory ControllerFactory) *SessionStore {
	onEvict := func(_ string, ctrl *Controller) {
		ctrl.Close()
	}
	return &SessionStore{
		cache:   expirable.NewLRU[string, *Controller](maxSize, onEvict, ttl),
		factory: factory,
	}
}

// Get возвращает контроллер сессии и продлевает её TTL.
// Возвращает (контроллер, true) при hit или (nil, false) при miss.
func (s *SessionStore) Get(sessionID string) (*Controller, bool) {
	if sessionID == "" {
		sessionMissesTotal.Inc()
		return nil, false
	}
	ctrl, ok := s.cache.Get(sessionID)
	if ok {
		// Повторный Add обновляет срок жизни без вызова onEvict
		s.cache.Add(sessionID, ctrl)
		sessionHitsTotal.Inc()
		return ctrl, true
	}
	sessionMissesTotal.Inc()
	return nil, false
}

// Create создаёт новую сессию и возвращает её ID и контроллер.
func (s *SessionStore) Create() (string, *Controller) {
	id := uuid.NewString()
	ctrl := s.factory()
	s.cache.Add(id, ctrl)
	sessionsCreatedTotal.Inc()
	return id, ctrl
}

// GetOrCreate возвращает контроллер существующей сессии или создаёт новую.
// created == true, если был выдан новый ID.
func (s *SessionStore) GetOrCreate(sessionID string) (id string, ctrl *Controller, created bool) {
	if ctrl, ok := s.Get(sessionID); ok {
		return sessionID, ctrl, false
	}
	id, ctrl = s.Create()
	return id, ctrl, true
}

// Delete удаляет сессию.
func (s *SessionStore) Delete(sessionID string) {
	s.cache.Remove(sessionID)
}

// Len возвращает количество активных сессий.
func (s *SessionStore) Len() int {
	return s.cache.Len()
}

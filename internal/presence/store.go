package presence

import (
	"sync"

	"realtime/internal/models"
)

// Store tracks which users are currently viewing which entities. State is
// strictly in-memory and per-instance; it is rebuilt from client events after
// a restart.
type Store struct {
	mu      sync.RWMutex
	viewers map[models.EntityRef]map[string]models.UserPresence
}

func NewStore() *Store {
	return &Store{viewers: make(map[models.EntityRef]map[string]models.UserPresence)}
}

// AddUser inserts or overwrites the user's entry in the entity's viewer set.
// Adding the same user twice is equivalent to adding once.
func (s *Store) AddUser(ref models.EntityRef, user models.UserPresence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.viewers[ref]
	if !ok {
		set = make(map[string]models.UserPresence)
		s.viewers[ref] = set
	}
	set[user.UserID] = user
}

// RemoveUser drops the user from the entity's viewer set. Removing an absent
// user, or a user from an untracked entity, is a no-op.
func (s *Store) RemoveUser(ref models.EntityRef, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.viewers[ref]
	if !ok {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(s.viewers, ref)
	}
}

// GetUsers returns the current viewer set for an entity. The result is never
// nil and is a copy safe to hand to encoders.
func (s *Store) GetUsers(ref models.EntityRef) []models.UserPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.viewers[ref]
	users := make([]models.UserPresence, 0, len(set))
	for _, u := range set {
		users = append(users, u)
	}
	return users
}

// RemoveUserFromAll purges the user from every entity they were viewing and
// returns the affected entities so the caller can broadcast fresh viewer
// lists. Used on disconnect.
func (s *Store) RemoveUserFromAll(userID string) []models.EntityRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected []models.EntityRef
	for ref, set := range s.viewers {
		if _, ok := set[userID]; !ok {
			continue
		}
		delete(set, userID)
		if len(set) == 0 {
			delete(s.viewers, ref)
		}
		affected = append(affected, ref)
	}
	return affected
}

// ViewerCount reports the number of distinct viewers of an entity.
func (s *Store) ViewerCount(ref models.EntityRef) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers[ref])
}

package collections

import (
	"fmt"
	"strings"

	"github.com/mcdev12/oscarnight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RegisterOrFetch returns the user with the given name, creating it first when
// no such user exists. created reports whether a new user was appended.
func (s *Store) RegisterOrFetch(name string) (user models.User, created bool, err error) {
	if strings.TrimSpace(name) == "" {
		return models.User{}, false, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.userIndexByName(name); i >= 0 {
		return s.users[i].Clone(), false, nil
	}

	user = models.NewUser(name)
	s.users = append(s.users, user)

	log.Info().
		Str("name", name).
		Str("uuid", user.UUID).
		Int("total_users", len(s.users)).
		Msg("user registered")

	return user.Clone(), true, nil
}

// UserByUUID looks a user up by its primary key
func (s *Store) UserByUUID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.userIndexByUUID(id); i >= 0 {
		return s.users[i].Clone(), true
	}
	return models.User{}, false
}

// UserByName looks a user up by its display name
func (s *Store) UserByName(name string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.userIndexByName(name); i >= 0 {
		return s.users[i].Clone(), true
	}
	return models.User{}, false
}

// UpdateUsers upserts users keyed by uuid. The batch is rejected as a whole
// when any record carries negative bragging rights or when it would leave two
// users sharing a name.
func (s *Store) UpdateUsers(updates []models.User) error {
	for _, u := range updates {
		if u.BraggingRights < 0 {
			return fmt.Errorf("user %q bragging rights %d: %w", u.UUID, u.BraggingRights, ErrInvalidUser)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := cloneUsers(updates)
	merged, err := ApplyUpdates(cloneUsers(s.users), incoming, userKey)
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(merged))
	for _, u := range merged {
		if owner, ok := seen[u.Name]; ok && owner != u.UUID {
			return fmt.Errorf("%q: %w", u.Name, ErrNameTaken)
		}
		seen[u.Name] = u.UUID
	}

	s.users = merged
	return nil
}

func (s *Store) userIndexByUUID(id string) int {
	for i, u := range s.users {
		if u.UUID == id {
			return i
		}
	}
	return -1
}

func (s *Store) userIndexByName(name string) int {
	for i, u := range s.users {
		if u.Name == name {
			return i
		}
	}
	return -1
}

package collections

import (
	"sync"

	"github.com/mcdev12/oscarnight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Key identifies a persisted collection document
type Key string

const (
	KeyUsers      Key = "users"
	KeyCategories Key = "categories"
	KeyBuzzes     Key = "buzzes"
	KeyTrivia     Key = "triviaQuestions"
)

// Snapshot is the full contents of the store at one point in time
type Snapshot struct {
	Users      []models.User
	Categories []models.Category
	Buzzes     []string
	Trivia     []models.TriviaQuestion
}

// Store owns the shared session collections. Every accessor returns copies so
// callers can hand results to other goroutines (encoders, the persistence
// writer) without holding the lock.
type Store struct {
	mu         sync.RWMutex
	users      []models.User
	categories []models.Category
	buzzes     []string
	trivia     []models.TriviaQuestion
}

func userKey(u models.User) string         { return u.UUID }
func categoryKey(c models.Category) string { return c.Name }

// NewStore builds a store from previously loaded documents. Duplicate keys are
// collapsed (last wins) and buzzes for users that do not exist are dropped.
func NewStore(initial Snapshot) *Store {
	s := &Store{
		users:      []models.User{},
		categories: []models.Category{},
		buzzes:     []string{},
		trivia:     append([]models.TriviaQuestion{}, initial.Trivia...),
	}

	var users []models.User
	for _, u := range initial.Users {
		if u.UUID == "" {
			log.Warn().Str("name", u.Name).Msg("dropping stored user without uuid")
			continue
		}
		users = append(users, u.Clone())
	}
	s.users, _ = ApplyUpdates(s.users, users, userKey)

	var categories []models.Category
	for _, c := range initial.Categories {
		if c.Name == "" {
			log.Warn().Msg("dropping stored category without name")
			continue
		}
		categories = append(categories, c.Clone())
	}
	s.categories, _ = ApplyUpdates(s.categories, categories, categoryKey)

	for _, id := range initial.Buzzes {
		if s.userIndexByUUID(id) < 0 {
			log.Warn().Str("uuid", id).Msg("dropping stored buzz for unknown user")
			continue
		}
		if !containsString(s.buzzes, id) {
			s.buzzes = append(s.buzzes, id)
		}
	}

	return s
}

// Snapshot returns a copy of every collection
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Users:      s.Users(),
		Categories: s.Categories(),
		Buzzes:     s.Buzzes(),
		Trivia:     s.Trivia(),
	}
}

// Users returns a copy of the users collection in insertion order
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUsers(s.users)
}

// Categories returns a copy of the categories collection in insertion order
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCategories(s.categories)
}

// Buzzes returns the buzz queue in arrival order
func (s *Store) Buzzes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.buzzes...)
}

// Trivia returns the read-only trivia questions
func (s *Store) Trivia() []models.TriviaQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TriviaQuestion{}, s.trivia...)
}

func cloneUsers(in []models.User) []models.User {
	out := make([]models.User, len(in))
	for i, u := range in {
		out[i] = u.Clone()
	}
	return out
}

func cloneCategories(in []models.Category) []models.Category {
	out := make([]models.Category, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

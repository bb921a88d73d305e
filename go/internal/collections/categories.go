package collections

import (
	"fmt"

	"github.com/mcdev12/oscarnight/go/internal/models"
)

// Category looks a category up by name
func (s *Store) Category(name string) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.categoryIndex(name); i >= 0 {
		return s.categories[i].Clone(), true
	}
	return models.Category{}, false
}

// UpdateCategories upserts categories keyed by name
func (s *Store) UpdateCategories(updates []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := ApplyUpdates(s.categories, cloneCategories(updates), categoryKey)
	if err != nil {
		return err
	}
	s.categories = merged
	return nil
}

// LockCategory sets locked on the named category and returns its new state.
// Locking an already locked category is not an error.
func (s *Store) LockCategory(name string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndex(name)
	if i < 0 {
		return models.Category{}, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	s.categories[i].Locked = true
	return s.categories[i].Clone(), nil
}

func (s *Store) categoryIndex(name string) int {
	for i, c := range s.categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

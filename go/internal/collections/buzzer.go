package collections

import "fmt"

// Buzz appends the user to the buzz queue unless it is already queued, and
// returns the whole queue.
func (s *Store) Buzz(userUUID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userIndexByUUID(userUUID) < 0 {
		return nil, fmt.Errorf("user %q: %w", userUUID, ErrNotFound)
	}
	if !containsString(s.buzzes, userUUID) {
		s.buzzes = append(s.buzzes, userUUID)
	}
	return append([]string{}, s.buzzes...), nil
}

// Unbuzz removes the user from the buzz queue if present
func (s *Store) Unbuzz(userUUID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.buzzes[:0]
	for _, id := range s.buzzes {
		if id != userUUID {
			kept = append(kept, id)
		}
	}
	s.buzzes = kept
	return append([]string{}, s.buzzes...)
}

// ResetBuzzes empties the buzz queue
func (s *Store) ResetBuzzes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buzzes = []string{}
	return []string{}
}

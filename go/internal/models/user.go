package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// User represents a registered player in the session
type User struct {
	Name           string            `json:"name"`
	UUID           string            `json:"uuid"`
	Picks          map[string]string `json:"picks"`
	BraggingRights int               `json:"braggingRights"`
	BuyIn          float64           `json:"buyIn"`
}

// NewUser creates a user with a fresh UUID and zeroed counters
func NewUser(name string) User {
	return User{
		Name:  name,
		UUID:  uuid.NewString(),
		Picks: map[string]string{},
	}
}

// UnmarshalJSON decodes a user, giving it an empty picks map when none was sent
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Picks == nil {
		p.Picks = map[string]string{}
	}
	*u = User(p)
	return nil
}

// Clone returns a copy that shares no maps with u
func (u User) Clone() User {
	picks := make(map[string]string, len(u.Picks))
	for k, v := range u.Picks {
		picks[k] = v
	}
	u.Picks = picks
	return u
}

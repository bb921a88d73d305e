package models

import "encoding/json"

// DefaultCategoryValue is the point value given to a category that does not declare one
const DefaultCategoryValue = 25

// Nominee is a single entry within a category
type Nominee struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Winner   bool   `json:"winner"`
}

// Category represents an award category and its nominees
type Category struct {
	Name          string    `json:"name"`
	Value         int       `json:"value"`
	Nominees      []Nominee `json:"nominees"`
	Distinguished bool      `json:"distinguished"`
	VotingActive  bool      `json:"votingActive"`
	Locked        bool      `json:"locked"`
}

// UnmarshalJSON decodes a category and fills in defaults for absent fields
func (c *Category) UnmarshalJSON(data []byte) error {
	type plain Category
	p := plain{Value: DefaultCategoryValue}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Nominees == nil {
		p.Nominees = []Nominee{}
	}
	*c = Category(p)
	return nil
}

// Clone returns a copy with its own nominee slice
func (c Category) Clone() Category {
	c.Nominees = append([]Nominee(nil), c.Nominees...)
	if c.Nominees == nil {
		c.Nominees = []Nominee{}
	}
	return c
}

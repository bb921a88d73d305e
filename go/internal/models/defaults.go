package models

// DefaultCategories returns the built-in category set used when no categories
// document exists yet. It covers three categories from the 2013 Oscars.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:  "Best Picture",
			Value: 100,
			Nominees: []Nominee{
				{Title: "American Hustle"},
				{Title: "Captain Phillips"},
				{Title: "Dallas Buyers Club"},
				{Title: "Gravity"},
				{Title: "Her"},
				{Title: "Nebraska"},
				{Title: "Philomena"},
				{Title: "12 Years a Slave"},
				{Title: "The Wolf of Wall Street"},
			},
		},
		{
			Name:  "Best Actor in a Leading Role",
			Value: 100,
			Nominees: []Nominee{
				{Title: "Christian Bale", Subtitle: "American Hustle"},
				{Title: "Bruce Dern", Subtitle: "Nebraska"},
				{Title: "Leonardo DiCaprio", Subtitle: "The Wolf of Wall Street"},
				{Title: "Chiwetel Ejiofor", Subtitle: "12 Years a Slave"},
				{Title: "Matthew McConaughey", Subtitle: "Dallas Buyers Club"},
			},
		},
		{
			Name:  "Best Actress in a Leading Role",
			Value: 100,
			Nominees: []Nominee{
				{Title: "Amy Adams", Subtitle: "American Hustle"},
				{Title: "Cate Blanchett", Subtitle: "Blue Jasmine"},
				{Title: "Sandra Bullock", Subtitle: "Gravity"},
				{Title: "Judi Dench", Subtitle: "Philomena"},
				{Title: "Meryl Streep", Subtitle: "August: Osage County"},
			},
		},
	}
}

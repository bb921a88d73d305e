package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/models"
	"github.com/mcdev12/oscarnight/go/internal/persistence"
	"github.com/rs/zerolog/log"
)

// loadSnapshot reads every collection document from repo. Missing documents
// start empty, except categories which fall back to the built-in set. A
// document that exists but cannot be read or decoded is fatal.
func loadSnapshot(ctx context.Context, repo persistence.Repository) (collections.Snapshot, error) {
	var snapshot collections.Snapshot

	categories, found, err := persistence.LoadDocument[[]models.Category](ctx, repo, string(collections.KeyCategories))
	if err != nil {
		return snapshot, fmt.Errorf("load categories: %w", err)
	}
	if !found {
		log.Warn().Msg("no categories document found; it is necessary for the session to work. " +
			"Creating one with three categories from the 2013 Oscars for demonstration purposes")
		categories = models.DefaultCategories()
	}
	snapshot.Categories = categories

	if snapshot.Users, _, err = persistence.LoadDocument[[]models.User](ctx, repo, string(collections.KeyUsers)); err != nil {
		return snapshot, fmt.Errorf("load users: %w", err)
	}
	if snapshot.Buzzes, _, err = persistence.LoadDocument[[]string](ctx, repo, string(collections.KeyBuzzes)); err != nil {
		return snapshot, fmt.Errorf("load buzzes: %w", err)
	}
	if snapshot.Trivia, _, err = persistence.LoadDocument[[]models.TriviaQuestion](ctx, repo, string(collections.KeyTrivia)); err != nil {
		return snapshot, fmt.Errorf("load trivia questions: %w", err)
	}

	log.Info().
		Int("categories", len(snapshot.Categories)).
		Int("users", len(snapshot.Users)).
		Int("buzzes", len(snapshot.Buzzes)).
		Int("trivia_questions", len(snapshot.Trivia)).
		Msg("collections loaded")

	return snapshot, nil
}

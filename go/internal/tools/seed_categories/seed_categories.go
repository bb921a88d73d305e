package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/oscarnight/go/internal/dbconfig"
	"github.com/mcdev12/oscarnight/go/internal/models"
)

// Seeds the categories document of the postgres storage backend, either from
// the JSON file given as the only argument or from the built-in 2013 set.
func main() {
	// 1) Load the categories
	categories := models.DefaultCategories()
	source := "built-in defaults"
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
			os.Exit(1)
		}
		var fromFile []models.Category
		if err := json.Unmarshal(data, &fromFile); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
			os.Exit(1)
		}
		categories, source = fromFile, os.Args[1]
	}

	document, err := json.MarshalIndent(categories, "", "    ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal categories: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid database config: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	table := pgx.Identifier{cfg.Table}.Sanitize()
	overwrite, _ := strconv.ParseBool(os.Getenv("SEED_OVERWRITE"))

	// 3) Make sure the table exists, then insert
	if _, err := pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
          key        TEXT PRIMARY KEY,
          document   JSONB,
          updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`, table)); err != nil {
		fmt.Fprintf(os.Stderr, "create table: %v\n", err)
		os.Exit(1)
	}

	conflict := "DO NOTHING"
	if overwrite {
		conflict = "DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at"
	}
	cmdTag, err := pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (key, document, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) %s
    `, table, conflict), "categories", string(document))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error inserting categories: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	status := "skipped (already seeded, set SEED_OVERWRITE=true to replace)"
	if cmdTag.RowsAffected() == 1 {
		status = "written"
	}
	fmt.Printf(
		"Categories seed complete: %d categories from %s, %s\n",
		len(categories), source, status,
	)
}

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/justsurfingit/career-atlas/internal/config"
	"github.com/justsurfingit/career-atlas/internal/database"
	"github.com/justsurfingit/career-atlas/internal/docstore"
)

// seed loads a YAML file of jobs into Postgres. Documents are upserted by
// slug, so running it twice is harmless.
func main() {
	cfg := config.Load()
	file := flag.String("file", config.GetEnv("SEED_FILE", "testdata/jobs.yaml"), "YAML file with a top-level jobs list")
	dsn := flag.String("dsn", cfg.DatabaseURL, "Postgres connection string")
	flag.Parse()

	docs, err := docstore.LoadSeedFile(*file)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	db, err := database.Connect(*dsn)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	store := docstore.NewPostgresStore(db)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, doc := range docs {
		if err := store.Upsert(ctx, doc); err != nil {
			log.Fatalf("❌ upsert %s: %v", doc.Slug, err)
		}
	}
	log.Printf("✅ Seeded %d jobs from %s", len(docs), *file)
}

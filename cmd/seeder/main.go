// cmd/seeder/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/unclebandit/jetmatch-backend/internal/config"
	"github.com/unclebandit/jetmatch-backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	dialect, ok := cfg.Dialect()
	if !ok {
		log.Fatalf("seeder needs a SQL store, DB_DRIVER is %q", cfg.DBDriver)
	}

	database, err := db.Open(dialect, cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if err := db.Migrate(database, dialect); err != nil {
		log.Fatal(err)
	}

	seedFiles := []string{
		"seed/influencers.sql",
		"seed/campaigns.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		_, err = database.Exec(string(content))
		if err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}

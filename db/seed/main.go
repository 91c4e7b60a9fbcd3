package main

import (
	"log"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/database"
)

func main() {
	cfg := environments.Load()

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedDefaults(db); err != nil {
		log.Fatalf("Failed to seed default data: %v", err)
	}

	log.Println("Seed completed successfully")
}

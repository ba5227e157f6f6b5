package main

import (
	"log"
	"os"

	"contact-assistant-be/internal/model"
	"contact-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting GORM migration...")

	// 2. Extensions (gen_random_uuid)
	color.Yellow("Step 1: Setting up extensions")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		color.Red("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 3. AutoMigrate
	models := []interface{}{
		&model.Contact{},
		&model.CalendarEvent{},
		&model.Attendance{},
		&model.Meeting{},
		&model.Thread{},
		&model.Message{},
		&model.CrmCredential{},
	}
	color.Yellow("Step 2: Running AutoMigrate for %d tables", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// 4. Indexes gorm tags cannot express
	color.Yellow("Step 3: Creating expression indexes")
	postMigrationSQL := []string{
		// Contacts are unique by normalized email
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_email_lower ON contacts (lower(email));`,
		// Heuristic participant lookups
		`CREATE INDEX IF NOT EXISTS idx_meetings_participants ON meetings USING gin (participants);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_threads_untitled ON chat_threads (id) WHERE title IS NULL;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Red("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("Success: Database migration completed")
}

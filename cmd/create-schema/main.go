package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Create the answers table
	schemaSQL := `
CREATE TABLE IF NOT EXISTS answers (
    id UUID PRIMARY KEY,
    question TEXT NOT NULL,
    prompt TEXT NOT NULL,
    prompt_id VARCHAR(64) NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'hidden')),
    feedback INTEGER CHECK (feedback IN (-1, 1)),
    date TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_answers_date ON answers (date DESC);
CREATE INDEX IF NOT EXISTS idx_answers_prompt_id ON answers (prompt_id);
`
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create answers table: %v", err)
	}
	log.Println("✓ answers table ready")
}

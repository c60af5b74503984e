package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/brightlens/brokerportal/config"
	"github.com/brightlens/brokerportal/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@brightlens.dev"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, phone, is_verified)
		VALUES ($1, $2, 'Demo', 'Broker', '+15550100000', TRUE)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, email, hash).Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}

	var brokerID string
	err = db.QueryRow(`
		INSERT INTO brokers (user_id, company_name, broker_license, license_state, verification_status)
		VALUES ($1, 'Demo Realty', 'LIC-DEMO-0001', 'CA', 'verified')
		ON CONFLICT (broker_license) DO UPDATE SET updated_at = now()
		RETURNING id
	`, userID).Scan(&brokerID)
	if err != nil {
		log.Fatalf("failed to seed broker: %v", err)
	}

	fmt.Printf("seeded broker account: user=%s broker=%s email=%s password=%s\n", userID, brokerID, email, password)
}

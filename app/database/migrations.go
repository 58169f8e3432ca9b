package database

import (
	"database/sql"
	"log"
)

// RunMigrations checks and applies necessary schema updates
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	migrations := []struct {
		name  string
		query string
	}{
		{"users table", `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				email TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL DEFAULT '',
				photo_url TEXT NOT NULL DEFAULT '',
				firebase_uid TEXT NOT NULL DEFAULT '',
				password TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('student', 'admin')),
				is_blocked BOOLEAN NOT NULL DEFAULT false,
				last_login TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{"qr_tokens table", `
			CREATE TABLE IF NOT EXISTS qr_tokens (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				code TEXT NOT NULL UNIQUE,
				type TEXT NOT NULL CHECK (type IN ('in', 'out')),
				date TEXT NOT NULL,
				created_by TEXT NOT NULL DEFAULT '',
				issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMPTZ NOT NULL
			)`},
		{"qr_tokens type/date index", `
			CREATE INDEX IF NOT EXISTS idx_qr_tokens_type_date ON qr_tokens (type, date)`},
		{"qr_tokens expiry index", `
			CREATE INDEX IF NOT EXISTS idx_qr_tokens_expires_at ON qr_tokens (expires_at)`},
		{"qr_token_uses table", `
			CREATE TABLE IF NOT EXISTS qr_token_uses (
				code TEXT NOT NULL,
				user_id UUID NOT NULL,
				used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (code, user_id)
			)`},
		{"attendances table", `
			CREATE TABLE IF NOT EXISTS attendances (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				email TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				date TEXT NOT NULL,
				punches JSONB NOT NULL DEFAULT '[]',
				current_status TEXT NOT NULL DEFAULT 'out' CHECK (current_status IN ('in', 'out')),
				total_duration INTEGER NOT NULL DEFAULT 0,
				version INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, date)
			)`},
		{"attendances date index", `
			CREATE INDEX IF NOT EXISTS idx_attendances_date ON attendances (date)`},
		{"attendances email/date index", `
			CREATE INDEX IF NOT EXISTS idx_attendances_email_date ON attendances (email, date)`},
	}

	for _, m := range migrations {
		if _, err := db.Exec(m.query); err != nil {
			log.Printf("Failed to run migration for %s: %v", m.name, err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

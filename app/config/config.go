package config

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/sethvargo/go-envconfig"
	_ "github.com/lib/pq"
)

type Config struct {
	Port        string `env:"PORT, default=8080"`
	DatabaseURL string `env:"DATABASE_URL, default=host=localhost port=5432 user=postgres dbname=dl_attendance sslmode=disable"`
	JWTSecret   string `env:"JWT_SECRET, default=dl-management-secret-key"`
	FrontendURL string `env:"FRONTEND_URL"`

	// Timezone used to derive the business day for tokens and attendance.
	Timezone string `env:"TIMEZONE, default=Asia/Kolkata"`

	// QRRotation is the lifetime of a minted QR token; clients re-fetch
	// on the same cadence. QRTolerance is the extra grace after nominal
	// expiry absorbing scan-to-submit latency.
	QRRotation  time.Duration `env:"QR_ROTATION_INTERVAL, default=15s"`
	QRTolerance time.Duration `env:"QR_TOLERANCE, default=5s"`

	Firebase FirebaseConfig `env:",prefix=FIREBASE_"`
	Sheets   SheetsConfig   `env:",prefix=GOOGLE_"`

	DB       *sql.DB        `env:"-"`
	Location *time.Location `env:"-"`
}

type FirebaseConfig struct {
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

type SheetsConfig struct {
	SheetsID            string `env:"SHEETS_ID"`
	ServiceAccountEmail string `env:"SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string `env:"PRIVATE_KEY"`
}

// Configured reports whether Sheets mirroring credentials are present.
func (s SheetsConfig) Configured() bool {
	return s.SheetsID != "" && s.ServiceAccountEmail != "" && s.PrivateKey != ""
}

var AppConfig *Config

// Load reads configuration from the environment, resolves the timezone
// and opens the database pool. Fatal on any failure: the app cannot run
// without a database or a coherent notion of "today".
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}
	cfg.Location = loc

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	// Connection pool sized for many concurrent punch requests.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Println("Testing database connection...")
	if err = db.Ping(); err != nil {
		log.Fatal("Cannot establish database connection:", err)
	}
	cfg.DB = db

	AppConfig = &cfg
	log.Println("Database connected successfully")
	return AppConfig
}

func GetDB() *sql.DB {
	return AppConfig.DB
}

package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the shared GORM handle, set by Connect
var DB *gorm.DB

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Connect opens the Postgres connection. On Cloud Run the Cloud SQL proxy
// exposes the instance as a Unix socket under /cloudsql; everywhere else a
// plain TCP DSN is built from DB_* variables.
func Connect() {
	user := envOr("DB_USER", "postgres")
	pass := os.Getenv("DB_PASS")
	name := envOr("DB_NAME", "turfbook")

	var dsn string
	if instance := os.Getenv("INSTANCE_CONNECTION_NAME"); instance != "" {
		dsn = fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			instance, user, pass, name)
		log.Printf("🐘 Using Cloud SQL socket for instance %s", instance)
	} else {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		sslmode := envOr("DB_SSLMODE", "disable")
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, pass, name, sslmode)
		log.Printf("🐘 Using Postgres at %s:%s/%s", host, port, name)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	log.Println("✅ Database connection established")
}

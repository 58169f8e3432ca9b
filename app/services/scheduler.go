package services

import (
	"database/sql"
	"log"
	"time"

	"github.com/Ankitrj3/DL-Management-System/app/database"
)

// StartScheduler starts the background expired-token sweep. Tokens are
// already unusable by time comparison at validation; this only keeps
// the table from growing.
func StartScheduler(db *sql.DB, tolerance time.Duration) {
	go func() {
		log.Println("Scheduler started...")
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			n, err := database.DeleteAllExpiredQRTokens(db, time.Now(), tolerance)
			if err != nil {
				log.Printf("Error sweeping expired QR tokens: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Swept %d expired QR tokens", n)
			}
		}
	}()
}

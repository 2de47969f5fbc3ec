package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"crew_chief_permissions", "timesheets", "clock_entries", "assignments", "shifts", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)

		users := []struct {
			Email    string
			Name     string
			Role     string
			ClientID *int64
		}{
			{"manager@mail.com", "Maya Manager", "manager", nil},
			{"admin@mail.com", "Ade Admin", "admin", nil},
			{"chief@mail.com", "Carla Chief", "crew_chief", nil},
			{"worker@mail.com", "Wanda Worker", "employee", nil},
			{"client@mail.com", "Acme Contact", "client", clientID(1)},
		}

		for _, u := range users {
			seedUser(db, u.Email, u.Name, u.Role, u.ClientID, string(hash))
		}

		// Demo shift for tomorrow with two assignments, led by the crew chief.
		var chiefID, workerID int64
		db.Raw("SELECT id FROM users WHERE email = ?", "chief@mail.com").Scan(&chiefID)
		db.Raw("SELECT id FROM users WHERE email = ?", "worker@mail.com").Scan(&workerID)

		var shiftID int64
		db.Raw("SELECT id FROM shifts WHERE job_id = 1 AND client_id = 1").Scan(&shiftID)
		if shiftID == 0 {
			start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
			if err := db.Exec(`
				INSERT INTO shifts (job_id, client_id, crew_chief_id, status, starts_at, ends_at, created_at, updated_at)
				VALUES (1, 1, ?, 'upcoming', ?, ?, now(), now())`,
				chiefID, start, start.Add(8*time.Hour)).Error; err != nil {
				log.Fatalf("failed to insert shift: %v", err)
			}
			db.Raw("SELECT id FROM shifts WHERE job_id = 1 AND client_id = 1").Scan(&shiftID)

			for _, row := range []struct {
				WorkerID int64
				RoleCode string
			}{{chiefID, "CC"}, {workerID, "SH"}} {
				if err := db.Exec(`
					INSERT INTO assignments (shift_id, worker_id, role_code, status, created_at, updated_at)
					VALUES (?, ?, ?, 'not_started', now(), now())`,
					shiftID, row.WorkerID, row.RoleCode).Error; err != nil {
					log.Fatalf("failed to insert assignment: %v", err)
				}
			}
			fmt.Println("Seeded demo shift", shiftID)
		}

		// Print a dev token so the API is usable straight after seeding.
		token, err := auth.IssueToken(cfg.Security.AccessTokenSecret, chiefID, "chief@mail.com", cfg.Security.AccessTokenDuration)
		if err != nil {
			log.Fatalf("failed to issue dev token: %v", err)
		}
		fmt.Println("Dev token (crew chief):", token)
	},
}

func seedUser(db *gorm.DB, email, name, role string, clientIDVal *int64, hash string) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return
	}

	if err := db.Exec(`
		INSERT INTO users (email, name, password_hash, role, client_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, true, now(), now())`,
		email, name, hash, role, clientIDVal).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email, "role:", role)
}

func clientID(id int64) *int64 {
	return &id
}

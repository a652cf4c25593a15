package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/jorisdh/appdepot/internal/utils"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds the CREATE TABLE statements executed at startup. Statements
// are idempotent so repeated boots are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		first_name VARCHAR(255),
		last_name VARCHAR(255),
		email_address VARCHAR(255),
		isEnabled BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY username (username),
		UNIQUE KEY email_address (email_address)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS windows_apps (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		download_url VARCHAR(255) DEFAULT NULL,
		image_url VARCHAR(255) DEFAULT NULL,
		created_by BIGINT UNSIGNED DEFAULT NULL,
		last_modified_by BIGINT UNSIGNED DEFAULT NULL,
		created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		CONSTRAINT fk_apps_created_by FOREIGN KEY (created_by)
			REFERENCES users(id) ON DELETE SET NULL,
		CONSTRAINT fk_apps_modified_by FOREIGN KEY (last_modified_by)
			REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS settings (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		setting_key VARCHAR(255) NOT NULL,
		setting_value VARCHAR(255) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY setting_key (setting_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		token TEXT NOT NULL,
		created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_user_tokens_user (user_id),
		CONSTRAINT fk_user_tokens_user FOREIGN KEY (user_id)
			REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS blacklist_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		token TEXT NOT NULL,
		expires_at DATETIME DEFAULT NULL,
		created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// InitSchema creates all tables if they do not exist and seeds the default
// admin account and the registration_enabled setting. The admin password is
// taken from ADMIN_PASSWORD (default "admin") and stored as a bcrypt hash.
func InitSchema(ctx context.Context, db *sql.DB, bcryptCost int) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	var n int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", "admin").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		pw := os.Getenv("ADMIN_PASSWORD")
		if pw == "" {
			pw = "admin"
		}
		hash, err := utils.HashPassword(pw, bcryptCost)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO users (username, password, first_name, last_name, email_address, isEnabled)
			 VALUES (?, ?, 'Admin', 'User', 'admin@example.com', TRUE)`,
			"admin", hash); err != nil {
			return err
		}
		log.Println("seeded default admin user")
	}

	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM settings WHERE setting_key = ?", "registration_enabled").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		// Self-registration starts closed until an admin opens it.
		if _, err := db.ExecContext(ctx,
			"INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)",
			"registration_enabled", "0"); err != nil {
			return err
		}
		log.Println("seeded registration_enabled setting")
	}
	return nil
}

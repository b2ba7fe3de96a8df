package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the booking tables.  Statements are idempotent so the
// server can run them on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
	id            BIGINT UNSIGNED NOT NULL PRIMARY KEY,
	provider_id   BIGINT UNSIGNED NOT NULL,
	provider_name VARCHAR(255)    NOT NULL,
	customer_id   BIGINT UNSIGNED NOT NULL DEFAULT 0,
	customer_name VARCHAR(255)    NOT NULL,
	service       VARCHAR(255)    NOT NULL,
	service_date  DATE            NOT NULL,
	status        ENUM('requested','accepted','rejected','completed') NOT NULL DEFAULT 'requested',
	created_at    DATETIME(6)     NOT NULL,
	updated_at    DATETIME(6)     NOT NULL,
	KEY idx_bookings_provider (provider_id),
	KEY idx_bookings_customer (customer_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_status_changes (
	id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	booking_id  BIGINT UNSIGNED NOT NULL,
	from_status VARCHAR(16)     NOT NULL,
	to_status   VARCHAR(16)     NOT NULL,
	changed_by  BIGINT UNSIGNED NOT NULL DEFAULT 0,
	notes       VARCHAR(1000)   NOT NULL DEFAULT '',
	changed_at  DATETIME(6)     NOT NULL,
	KEY idx_status_changes_booking (booking_id),
	CONSTRAINT fk_status_changes_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

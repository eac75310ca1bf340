// Package dbtest opens throwaway in-memory SQLite databases carrying the
// voting schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS societies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  address TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  phone_number TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS profile_societies (
  profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  society_id TEXT NOT NULL REFERENCES societies(id) ON DELETE CASCADE,
  created_at DATETIME,
  PRIMARY KEY (profile_id, society_id)
);`,
	`CREATE TABLE IF NOT EXISTS service_providers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  contact_info TEXT,
  brief_note TEXT,
  is_approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS service_provider_societies (
  service_provider_id TEXT NOT NULL REFERENCES service_providers(id) ON DELETE CASCADE,
  society_id TEXT NOT NULL REFERENCES societies(id) ON DELETE CASCADE,
  created_at DATETIME,
  PRIMARY KEY (service_provider_id, society_id)
);`,
	`CREATE TABLE IF NOT EXISTS services (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS service_provider_services (
  service_provider_id TEXT NOT NULL REFERENCES service_providers(id) ON DELETE CASCADE,
  service_id TEXT NOT NULL REFERENCES services(id) ON DELETE CASCADE,
  PRIMARY KEY (service_provider_id, service_id)
);`,
	`CREATE TABLE IF NOT EXISTS voting_requests (
  id TEXT PRIMARY KEY,
  request_type TEXT NOT NULL,
  society_id TEXT NOT NULL REFERENCES societies(id) ON DELETE CASCADE,
  initiated_by_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  resident_user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
  service_provider_id TEXT REFERENCES service_providers(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME,
  expiry_time DATETIME NOT NULL
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_voting_requests_pending_resident_join
  ON voting_requests (resident_user_id) WHERE status = 'pending' AND request_type = 'resident_join';`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_voting_requests_pending_provider_list
  ON voting_requests (service_provider_id, society_id) WHERE status = 'pending' AND request_type = 'provider_list';`,
	`CREATE TABLE IF NOT EXISTS votes (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL REFERENCES voting_requests(id) ON DELETE CASCADE,
  voter_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  vote_type TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_votes_request_voter ON votes (request_id, voter_id);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

// Open returns a gorm handle on a fresh, uniquely named in-memory database with
// the schema applied. The database is dropped when the test finishes.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// shared-cache memory databases return SQLITE_LOCKED instead of waiting
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return conn
}

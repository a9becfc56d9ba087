//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/conference-central/internal/database"
)

// NewMySQL starts a MySQL 8 container, applies the schema and returns an
// open pool.
func NewMySQL(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("conference_central"),
		tcmysql.WithUsername("cc"),
		tcmysql.WithPassword("cc"),
	)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC", "charset=utf8mb4")
	if err != nil {
		t.Fatalf("failed to get mysql connection string: %v", err)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping mysql: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

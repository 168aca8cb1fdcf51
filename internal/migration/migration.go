package migration

import (
	"context"
	"fmt"
	"strings"

	"redevdash/domain/pipeline"
	"redevdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range r.Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.Wrap(errors.DatabaseError(err.Error()), fmt.Sprintf("failed to %s", step.Name))
		}
	}
	return nil
}

// Step is one named migration statement
type Step struct {
	Name string
	SQL  string
}

// Steps lists the migration statements in execution order
func (r *MigrationRunner) Steps() []Step {
	steps := []Step{
		{"enable pgcrypto", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
		{"create users table", usersTable},
		{"create audit_logs table", auditLogsTable},
		{"create projects table", ProjectsTableDDL()},
	}
	for _, def := range pipeline.Schema() {
		steps = append(steps, Step{
			Name: "add projects." + def.DBColumn,
			SQL:  fmt.Sprintf("ALTER TABLE projects ADD COLUMN IF NOT EXISTS %s %s", def.DBColumn, columnType(def)),
		})
	}
	for _, idx := range indexes {
		steps = append(steps, Step{Name: "create index", SQL: idx})
	}
	return steps
}

const usersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username VARCHAR(100) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT,
		status VARCHAR(32) NOT NULL DEFAULT 'pending_approval',
		role VARCHAR(32) NOT NULL DEFAULT 'user',
		approval_token TEXT,
		reset_token TEXT,
		reset_token_expiry TIMESTAMP WITH TIME ZONE,
		approved_at TIMESTAMP WITH TIME ZONE,
		approved_by TEXT,
		last_login TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

const auditLogsTable = `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		action VARCHAR(64) NOT NULL,
		details JSONB,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_status ON users(status)",
	"CREATE INDEX IF NOT EXISTS idx_users_approval_token ON users(approval_token)",
	"CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(reset_token)",
	"CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_projects_active ON projects(is_active)",
	"CREATE INDEX IF NOT EXISTS idx_projects_iso ON projects(iso)",
	"CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(plant_owner)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_excel_row ON projects(excel_row_id) WHERE excel_row_id IS NOT NULL",
}

// ProjectsTableDDL builds the projects table from the canonical column table
func ProjectsTableDDL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS projects (\n")
	b.WriteString("\t\tid BIGSERIAL PRIMARY KEY,\n")
	b.WriteString("\t\texcel_row_id TEXT,\n")
	for _, def := range pipeline.Schema() {
		fmt.Fprintf(&b, "\t\t%s %s,\n", def.DBColumn, columnType(def))
	}
	b.WriteString("\t\tis_active BOOLEAN NOT NULL DEFAULT true,\n")
	b.WriteString("\t\tcreated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),\n")
	b.WriteString("\t\tupdated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),\n")
	b.WriteString("\t\tcreated_by TEXT,\n")
	b.WriteString("\t\tupdated_by TEXT\n")
	b.WriteString("\t)")
	return b.String()
}

func columnType(def pipeline.ColumnDef) string {
	if def.Numeric {
		return "NUMERIC"
	}
	return "TEXT"
}

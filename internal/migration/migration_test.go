package migration

import (
	"strings"
	"testing"

	"redevdash/domain/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectsTableDDL(t *testing.T) {
	ddl := ProjectsTableDDL()

	assert.True(t, strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS projects ("))
	assert.Contains(t, ddl, "legacy_nameplate_capacity_mw NUMERIC,")
	assert.Contains(t, ddl, "plant_owner TEXT,")
	assert.Contains(t, ddl, "transmission_data TEXT,")
	assert.Contains(t, ddl, "is_active BOOLEAN NOT NULL DEFAULT true")
	for _, def := range pipeline.Schema() {
		assert.Contains(t, ddl, def.DBColumn+" ")
	}
}

func TestSteps_Order(t *testing.T) {
	steps := NewRunner().Steps()
	require.NotEmpty(t, steps)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, "enable pgcrypto", names[0])
	assert.Equal(t, "create users table", names[1])
	assert.Equal(t, "create audit_logs table", names[2])
	assert.Equal(t, "create projects table", names[3])
	assert.Contains(t, names, "add projects.redev_tier")
	assert.Equal(t, "create index", names[len(names)-1])
	assert.Equal(t, "1.0.0", NewRunner().Version())
}

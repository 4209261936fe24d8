package migration

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunAutoMigratesNonPostgres(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Run(conn, "sqlite"))

	for _, table := range []string{"properties", "property_values", "products", "product_properties"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("property_values", "ux_property_values_property_value"))
}

func TestRunRequiresHandle(t *testing.T) {
	assert.Error(t, Run(nil, "sqlite"))
	assert.Error(t, RunMigrations(nil))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	up, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	down, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, up)
	assert.Len(t, down, len(up))
}

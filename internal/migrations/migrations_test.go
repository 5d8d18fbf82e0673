package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gigmarket/marketapi/internal/db/bunx"
	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"
)

func TestMigrations_SQLite(t *testing.T) {
	ctx := context.Background()

	db, err := bunx.NewDB(ctx, filepath.Join(t.TempDir(), "migrations.db"), 1)
	require.NoError(t, err)
	defer bunx.Close(db)
	require.True(t, IsSQLite(db))
	require.False(t, IsPostgreSQL(db))

	migrator := migrate.NewMigrator(db, Migrations)
	require.NoError(t, migrator.Init(ctx))

	group, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	var users []models.User
	err = db.NewSelect().Model(&users).Order("id ASC").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "client", users[0].Role)
	assert.Equal(t, int64(4), users[2].ID)
	assert.Equal(t, "worker", users[2].Role)
	assert.True(t, users[2].IsActive)

	subs, err := db.NewSelect().Model((*models.Subscription)(nil)).Where("user_id = ?", 4).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, subs)

	// Re-running the seed must not duplicate rows.
	require.NoError(t, up_20260105120001(ctx, db))
	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = migrator.Rollback(ctx)
	require.NoError(t, err)
}

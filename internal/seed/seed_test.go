package seed_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/internlink/internal/migration"
	"github.com/smallbiznis/internlink/internal/seed"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureAdministratorIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.EnsureSchema(db))

	ctx := context.Background()
	created, err := seed.EnsureAdministrator(ctx, db, " Admin@Example.com ")
	require.NoError(t, err)
	require.True(t, created)

	created, err = seed.EnsureAdministrator(ctx, db, "admin@example.com")
	require.NoError(t, err)
	require.False(t, created)

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM users WHERE role = 'administrator'`).Scan(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEnsureAdministratorRejectsInvalidEmail(t *testing.T) {
	_, err := seed.EnsureAdministrator(context.Background(), &gorm.DB{}, "not-an-email")
	require.Error(t, err)
}

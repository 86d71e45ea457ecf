package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	// every new connection to :memory: is a different database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestAutoMigrate(t *testing.T) {
	db := setupTestDB(t)

	adapter, err := AutoMigrate(db)
	require.NoError(t, err)
	assert.NotNil(t, adapter)
	assert.True(t, db.Migrator().HasTable(&repositories.DBTrainer{}))
	assert.True(t, db.Migrator().HasTable(&repositories.DBStudent{}))
}

func TestSeedTrainer(t *testing.T) {
	db := setupTestDB(t)
	_, err := AutoMigrate(db)
	require.NoError(t, err)
	repo := repositories.NewTrainerRepository(db)
	ctx := context.Background()

	seeded, err := SeedTrainer(ctx, repo, domain.TrainerProfile{Phone: ""})
	require.NoError(t, err)
	assert.False(t, seeded)

	seeded, err = SeedTrainer(ctx, repo, domain.TrainerProfile{Name: "Ali", Phone: "09123823886"})
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = SeedTrainer(ctx, repo, domain.TrainerProfile{Name: "Other", Phone: "09121112233"})
	require.NoError(t, err)
	assert.False(t, seeded)

	profile, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "09123823886", profile.Phone)
}

func TestRedisClient_WaitReady(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := NewRedis(mr.Addr(), "", 0)
	defer client.Close()
	assert.NoError(t, client.WaitReady(context.Background(), 3, 10*time.Millisecond))

	mr.Close()
	err = client.WaitReady(context.Background(), 2, time.Millisecond)
	assert.Error(t, err)
}

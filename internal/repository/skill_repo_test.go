package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/SkillForge/internal/schema"
	"github.com/yuqie6/SkillForge/internal/testutil"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var freshProgress = schema.SkillProgress{Level: 1, TotalXP: 0, XPToNextLevel: 100, ProgressXP: 0}

func TestSkillRepositoryCreateAndGet(t *testing.T) {
	repo := NewSkillRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Archery", freshProgress)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.CurrentLevel)
	assert.Equal(t, int64(100), created.XPToNextLevel)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Archery", got.Name)
	assert.Equal(t, int64(0), got.TotalXP)
}

func TestSkillRepositoryCreateDuplicateIsCaseSensitive(t *testing.T) {
	repo := NewSkillRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, "Archery", freshProgress)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Archery", freshProgress)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = repo.Create(ctx, "archery", freshProgress)
	assert.NoError(t, err)
}

func TestSkillRepositoryGetMissing(t *testing.T) {
	repo := NewSkillRepository(testutil.OpenTestDB(t))

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestSkillRepositoryUpdateProgress(t *testing.T) {
	repo := NewSkillRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	skill, err := repo.Create(ctx, "Go", freshProgress)
	require.NoError(t, err)

	next := schema.SkillProgress{Level: 2, TotalXP: 150, XPToNextLevel: 250, ProgressXP: 50}
	require.NoError(t, repo.UpdateProgress(ctx, skill.ID, next))

	got, err := repo.GetByID(ctx, skill.ID)
	require.NoError(t, err)
	assert.Equal(t, next, got.Progress())

	assert.ErrorIs(t, repo.UpdateProgress(ctx, 999, next), ErrSkillNotFound)
}

func TestSkillRepositoryOrdering(t *testing.T) {
	repo := NewSkillRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, "A", freshProgress)
	require.NoError(t, err)
	b, err := repo.Create(ctx, "B", freshProgress)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateProgress(ctx, b.ID, schema.SkillProgress{Level: 2, TotalXP: 120, XPToNextLevel: 280, ProgressXP: 20}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)

	top, err := repo.GetTopByXP(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, b.ID, top[0].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSkillRepositoryDelete(t *testing.T) {
	repo := NewSkillRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	skill, err := repo.Create(ctx, "Go", freshProgress)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, skill.ID))
	assert.ErrorIs(t, repo.Delete(ctx, skill.ID), ErrSkillNotFound)
}

func TestSkillRepositoryGetByIDForUpdate(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	skill, err := store.Skills.Create(ctx, "Locksmithing", freshProgress)
	require.NoError(t, err)

	err = store.Transaction(ctx, func(tx *Store) error {
		got, err := tx.Skills.GetByIDForUpdate(ctx, skill.ID)
		require.NoError(t, err)
		assert.Equal(t, "Locksmithing", got.Name)

		_, err = tx.Skills.GetByIDForUpdate(ctx, skill.ID+100)
		assert.ErrorIs(t, err, ErrSkillNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestLockedByIDRendersRowLock(t *testing.T) {
	pg, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        "host=127.0.0.1 user=skillforge dbname=skillforge sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	sql := pg.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockedByID(tx, 7).First(&schema.Skill{})
	})
	assert.Contains(t, sql, `FROM "skills"`)
	assert.Contains(t, sql, "FOR UPDATE")

	// SQLite 方言忽略行锁子句
	lite := testutil.OpenTestDB(t)
	sql = lite.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockedByID(tx, 7).First(&schema.Skill{})
	})
	assert.NotContains(t, sql, "FOR UPDATE")
}

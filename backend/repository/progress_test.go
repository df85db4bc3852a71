package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"masterycourse/backend/models"
	"masterycourse/backend/repository"
	"masterycourse/backend/testutil"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkCompletedIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "1001")
	_, lessons := testutil.SeedModule(t, db, 1, "Foundations", "Intro", "Nodes", "Project")

	first, err := repos.Progress.MarkCompleted(ctx, user.ID, lessons[0].ID, time.Now())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repos.Progress.MarkCompleted(ctx, user.ID, lessons[0].ID, time.Now())
	require.NoError(t, err)
	assert.False(t, second)

	var count int64
	require.NoError(t, db.Model(&models.ProgressRecord{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rec, err := repos.Progress.Get(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.NotNil(t, rec.CompletedAt)
	assert.Nil(t, rec.ModuleID)
}

func TestMarkCompletedFlipsIncompleteRecord(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "1002")
	_, lessons := testutil.SeedModule(t, db, 1, "Foundations", "Intro", "Project")
	require.NoError(t, db.Create(&models.ProgressRecord{UserID: user.ID, LessonID: lessons[0].ID, Completed: false}).Error)

	newly, err := repos.Progress.MarkCompleted(ctx, user.ID, lessons[0].ID, time.Now())
	require.NoError(t, err)
	assert.True(t, newly)

	rec, err := repos.Progress.Get(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, rec.Completed)
}

func TestMarkCompletedConcurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "1003")
	_, lessons := testutil.SeedModule(t, db, 1, "Foundations", "Intro", "Project")

	const callers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		fails []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			newly, err := repos.Progress.MarkCompleted(ctx, user.ID, lessons[0].ID, time.Now())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails = append(fails, err)
			}
			if newly {
				wins++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, fails)
	assert.Equal(t, 1, wins)

	records, err := repos.Progress.ListAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListCompletedReturnsEmptySlice(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())

	records, err := repos.Progress.ListCompleted(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestClaimModuleCompletionOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "1004")
	module, _ := testutil.SeedModule(t, db, 1, "Foundations", "Intro", "Project")

	claimed, err := repos.Progress.ClaimModuleCompletion(ctx, user.ID, module.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repos.Progress.ClaimModuleCompletion(ctx, user.ID, module.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestDeleteForUserClearsProgressAndMilestones(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "1005")
	other := testutil.SeedUser(t, db, "1006")
	module, lessons := testutil.SeedModule(t, db, 1, "Foundations", "Intro", "Project")

	for _, l := range lessons {
		_, err := repos.Progress.MarkCompleted(ctx, user.ID, l.ID, time.Now())
		require.NoError(t, err)
	}
	_, err := repos.Progress.MarkCompleted(ctx, other.ID, lessons[0].ID, time.Now())
	require.NoError(t, err)
	_, err = repos.Progress.ClaimModuleCompletion(ctx, user.ID, module.ID, time.Now())
	require.NoError(t, err)

	deleted, err := repos.Progress.DeleteForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repos.Progress.ListAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	otherRecords, err := repos.Progress.ListAll(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, otherRecords, 1)

	claimed, err := repos.Progress.ClaimModuleCompletion(ctx, user.ID, module.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, claimed, "milestone is claimable again after reset")
}

func TestAchievementsMissingTableIsNoop(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "1007")

	recorded, err := repos.Achievements.Insert(ctx, &models.Achievement{UserID: user.ID, AchievementType: "lesson_complete"})
	require.NoError(t, err)
	assert.True(t, recorded)

	require.NoError(t, db.Migrator().DropTable(&models.Achievement{}))

	recorded, err = repos.Achievements.Insert(ctx, &models.Achievement{UserID: user.ID, AchievementType: "lesson_complete"})
	require.NoError(t, err)
	assert.False(t, recorded)

	deleted, err := repos.Achievements.DeleteForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUserEnsureReturnsExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.New(db, utils.NopLogger())
	ctx := context.Background()

	first, err := repos.Users.Ensure(ctx, &models.User{DiscordID: "2001", DiscordUsername: "ada"})
	require.NoError(t, err)
	second, err := repos.Users.Ensure(ctx, &models.User{DiscordID: "2001", DiscordUsername: "someone-else"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ada", second.DiscordUsername)

	_, err = repos.Users.GetByDiscordID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIsMissingRelation(t *testing.T) {
	assert.False(t, repository.IsMissingRelation(nil))
	assert.False(t, repository.IsMissingRelation(errors.New("connection refused")))
	assert.True(t, repository.IsMissingRelation(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, repository.IsMissingRelation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, repository.IsMissingRelation(errors.New("no such table: user_achievements")))
	assert.True(t, repository.IsMissingRelation(errors.New(`relation "user_achievements" does not exist`)))
}

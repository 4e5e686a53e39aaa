package cron

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func TestSweepExpiredSubscriptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	now := time.Now()

	stale := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithSubscriptionWindow(now.AddDate(0, -1, 0), now.Add(-time.Minute)))
	fresh := testutil.TestSubscription(t, db, user.ID, plan.ID)

	s := NewScheduler(repository.NewSubscriptionRepository(db), &config.Config{})
	require.NoError(t, s.SweepExpiredSubscriptions())

	var gotStale model.Subscription
	require.NoError(t, db.First(&gotStale, stale.ID).Error)
	assert.Equal(t, model.SubscriptionStatusExpired, gotStale.Status)

	var gotFresh model.Subscription
	require.NoError(t, db.First(&gotFresh, fresh.ID).Error)
	assert.Equal(t, model.SubscriptionStatusActive, gotFresh.Status)
}

func TestCleanupDirOlderThan(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "stale.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "fresh.pdf")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))

	require.NoError(t, CleanupDirOlderThan(dir, 24*time.Hour))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestCleanupDirMissingIsNoop(t *testing.T) {
	assert.NoError(t, CleanupDirOlderThan("/nonexistent/path", time.Hour))
}

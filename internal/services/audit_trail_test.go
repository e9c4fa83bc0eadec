package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auditTrail wires every service over one in-memory SQLite database
type auditTrail struct {
	recorder  *RecorderService
	sweeper   *SweeperService
	attempts  *AttemptService
	settings  *SettingsService
	provision *ProvisioningService
	clock     *testClock
	repo      *repositories.SQLiteLoginAttemptRepository
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newAuditTrail(t *testing.T) *auditTrail {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	repo := repositories.NewSQLiteLoginAttemptRepository(db)
	store := repositories.NewSQLiteSettingsRepository(db)
	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	recorder := NewRecorderService(repo, RecorderConfig{Timeout: 5 * time.Second, MaxRetries: 2}, testAudit(), testLogger())
	recorder.now = clock.Now
	sweeper := NewSweeperService(repo, SweeperConfig{BatchSize: 2, Timeout: 5 * time.Second}, testAudit(), testLogger())
	sweeper.now = clock.Now
	settings := NewSettingsService(store, testAudit(), testLogger(), 5*time.Second)

	trail := &auditTrail{
		recorder:  recorder,
		sweeper:   sweeper,
		settings:  settings,
		attempts:  NewAttemptService(repo, settings, sweeper, true, 5*time.Second, testLogger()),
		provision: NewProvisioningService(repo, store, testAudit(), testLogger()),
		clock:     clock,
		repo:      repo,
	}
	require.NoError(t, trail.provision.Install(ctx))

	return trail
}

func TestAuditTrail_ConcurrentRecordsAreAllKept(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()

	const n = 30
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var id int64
			var err error
			if i%2 == 0 {
				id, err = trail.recorder.OnLoginSuccess(ctx, "alice", "10.0.0.1", "ua")
			} else {
				id, err = trail.recorder.OnLoginFailure(ctx, nil, "10.0.0.2", "ua")
			}
			assert.NoError(t, err)
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}

	attempts, err := trail.attempts.ListRecent(ctx, MaxListLimit)
	require.NoError(t, err)
	assert.Len(t, attempts, n)
	for i := 1; i < len(attempts); i++ {
		assert.Greater(t, attempts[i-1].ID, attempts[i].ID, "same timestamp lists newest id first")
	}
}

func TestAuditTrail_ListingShowsNewestFirst(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()
	start := trail.clock.Now()

	for i, name := range []string{"first", "second", "third"} {
		trail.clock.Set(start.Add(time.Duration(i) * time.Minute))
		_, err := trail.recorder.OnLoginSuccess(ctx, name, "", "")
		require.NoError(t, err)
	}

	attempts, err := trail.attempts.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "third", attempts[0].Username)
	assert.Equal(t, "second", attempts[1].Username)
}

func TestAuditTrail_DefaultListingIsTenMostRecent(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()
	start := trail.clock.Now()

	for i := 0; i < 15; i++ {
		trail.clock.Set(start.Add(time.Duration(i) * time.Second))
		_, err := trail.recorder.OnLoginFailure(ctx, nil, "", "")
		require.NoError(t, err)
	}

	attempts, err := trail.attempts.ListRecent(ctx, DefaultListLimit)
	require.NoError(t, err)
	require.Len(t, attempts, 10)
	for i, a := range attempts {
		assert.Equal(t, start.Add(time.Duration(14-i)*time.Second), a.Time)
	}
}

func TestAuditTrail_RecordedTimeIsServerNow(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()
	recorder := NewRecorderService(trail.repo, RecorderConfig{Timeout: 5 * time.Second}, testAudit(), testLogger())

	before := time.Now().UTC().Truncate(time.Microsecond)
	id, err := recorder.OnLoginSuccess(ctx, "alice", "192.0.2.1", "Mozilla/5.0")
	after := time.Now().UTC()
	require.NoError(t, err)

	attempts, err := trail.attempts.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	got := attempts[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.AttemptStatusSuccess, got.Status)
	assert.Equal(t, "192.0.2.1", got.IPAddress)
	assert.Equal(t, "Mozilla/5.0", got.UserAgent)
	assert.False(t, got.Time.Before(before), "time %v before call started %v", got.Time, before)
	assert.False(t, got.Time.After(after), "time %v after call returned %v", got.Time, after)
}

func TestAuditTrail_ScheduledRetentionHidesExpiredFromListing(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()
	now := trail.clock.Now()
	attempts := NewAttemptService(trail.repo, trail.settings, trail.sweeper, false, 5*time.Second, testLogger())

	trail.clock.Set(now.AddDate(0, 0, -10))
	_, err := trail.recorder.OnLoginSuccess(ctx, "expired", "", "")
	require.NoError(t, err)
	trail.clock.Set(now)
	_, err = trail.recorder.OnLoginSuccess(ctx, "fresh", "", "")
	require.NoError(t, err)

	_, err = trail.settings.Update(ctx, "admin", SettingsInput{Enabled: "1", RetainDays: "7"})
	require.NoError(t, err)

	listed, err := attempts.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "fresh", listed[0].Username)

	count, err := trail.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "listing without sweep-on-list does not delete")
}

func TestAuditTrail_RetentionBoundary(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()
	now := trail.clock.Now()
	cutoff := now.AddDate(0, 0, -3)

	record := func(name string, at time.Time) {
		trail.clock.Set(at)
		_, err := trail.recorder.OnLoginSuccess(ctx, name, "", "")
		require.NoError(t, err)
	}
	record("expired-1", cutoff.Add(-48*time.Hour))
	record("expired-2", cutoff.Add(-time.Hour))
	record("expired-3", cutoff.Add(-time.Microsecond))
	record("at-cutoff", cutoff)
	record("fresh", now)
	trail.clock.Set(now)

	_, err := trail.settings.Update(ctx, "admin", SettingsInput{Enabled: "1", RetainDays: "3"})
	require.NoError(t, err)

	attempts, err := trail.attempts.ListRecent(ctx, 10)
	require.NoError(t, err)

	names := make([]string, 0, len(attempts))
	for _, a := range attempts {
		names = append(names, a.Username)
	}
	assert.Equal(t, []string{"fresh", "at-cutoff"}, names)
}

func TestAuditTrail_DisabledRetentionKeepsEverything(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()
	now := trail.clock.Now()

	trail.clock.Set(now.AddDate(-1, 0, 0))
	_, err := trail.recorder.OnLoginSuccess(ctx, "ancient", "", "")
	require.NoError(t, err)
	trail.clock.Set(now)

	_, err = trail.settings.Update(ctx, "admin", SettingsInput{Enabled: "off", RetainDays: "1"})
	require.NoError(t, err)

	deleted, err := trail.sweeper.Sweep(ctx, models.RetentionSettings{Enabled: false, RetainDays: 1})
	require.NoError(t, err)
	assert.Zero(t, deleted)

	attempts, err := trail.attempts.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestAuditTrail_InvalidSettingsLeaveStoredValues(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()

	_, err := trail.settings.Update(ctx, "admin", SettingsInput{Enabled: "1", RetainDays: "10"})
	require.NoError(t, err)

	current, err := trail.settings.Update(ctx, "admin", SettingsInput{Enabled: "0", RetainDays: "abc"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.RetentionSettings{Enabled: true, RetainDays: 10}, current)

	stored, err := trail.settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RetentionSettings{Enabled: true, RetainDays: 10}, stored)
}

func TestAuditTrail_ReinstallStartsEmptyWithDefaults(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()

	_, err := trail.recorder.OnLoginSuccess(ctx, "alice", "", "")
	require.NoError(t, err)
	_, err = trail.settings.Update(ctx, "admin", SettingsInput{Enabled: "yes", RetainDays: "5"})
	require.NoError(t, err)

	require.NoError(t, trail.provision.Uninstall(ctx))
	require.NoError(t, trail.provision.Uninstall(ctx))

	_, err = trail.recorder.OnLoginSuccess(ctx, "bob", "", "")
	var serr *StorageError
	require.ErrorAs(t, err, &serr, "recording without a store reports the failure")

	require.NoError(t, trail.provision.Install(ctx))

	attempts, err := trail.attempts.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	settings, err := trail.settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRetentionSettings(), settings)
}

func TestAuditTrail_ReplayedEventIsStoredOnce(t *testing.T) {
	trail := newAuditTrail(t)
	ctx := context.Background()

	event := models.AttemptEvent{
		EventID:  uuid.MustParse("6f1c2b7e-4d0a-4c3e-9a51-0b8f2d7c9e11"),
		Username: "carol",
		Status:   models.AttemptStatusFailed,
	}

	id1, err := trail.recorder.RecordEvent(ctx, event)
	require.NoError(t, err)
	id2, err := trail.recorder.RecordEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	attempts, err := trail.attempts.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "carol", attempts[0].Username)
}

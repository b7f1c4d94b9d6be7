package service

import (
	"context"
	"testing"
	"time"

	"power_dialer_backend/internal/campaigns/repository"
	"power_dialer_backend/internal/campaigns/transport"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newService() (*Service, *repository.MemoryRepo) {
	repo := repository.NewMemory()
	svc := New(repo, logger.Discard())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, repo
}

func TestSeedInsertsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, []string{"wave1", "wave2"}, first.Campaigns)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "wave1", active[0].ID)
	assert.Equal(t, 9, active[0].StartHourLocal)
	assert.Equal(t, 20, active[0].EndHourLocal)
}

func TestSeedKeepsOperatorChanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.Seed(ctx)
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, "wave1", false)
	require.NoError(t, err)
	_, err = svc.Seed(ctx)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "wave1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestUpsertValidatesWindow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	cases := []struct {
		name       string
		start, end int
	}{
		{"inverted", 20, 9},
		{"empty", 10, 10},
		{"out of range", 9, 24},
	}
	for _, tc := range cases {
		_, err := svc.Upsert(ctx, transport.UpsertCampaignRequest{
			ID: "w", Name: "W", StartHourLocal: tc.start, EndHourLocal: tc.end, Timezone: "UTC",
		})
		assert.True(t, apperr.Is(err, apperr.KindValidation), tc.name)
	}
}

func TestUpsertCreatesAndReplaces(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Upsert(ctx, transport.UpsertCampaignRequest{
		ID: "wave3", Name: " Dentists ", IsActive: true, StartHourLocal: 8, EndHourLocal: 17, Timezone: "America/Chicago",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dentists", created.Name)
	assert.Equal(t, fixedNow, created.CreatedAt)

	later := fixedNow.Add(time.Hour)
	svc.SetClock(func() time.Time { return later })
	updated, err := svc.Upsert(ctx, transport.UpsertCampaignRequest{
		ID: "wave3", Name: "Dentists", StartHourLocal: 9, EndHourLocal: 16, Timezone: "America/Chicago",
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, fixedNow, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	exists, err := svc.Exists(ctx, "wave3")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSetActiveUnknownCampaign(t *testing.T) {
	svc, _ := newService()
	_, err := svc.SetActive(context.Background(), "nope", true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

package availabilityRepo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"slotchain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *MemoryAvailabilityRepo) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), &models.Availability{
		WalletAddress: "0xabc",
		Timezone:      "UTC",
		Interval:      30,
		AvailableDays: []models.AvailableDay{{
			Date:  "2025-06-02",
			Slots: []models.TimeSlot{{ID: "s1", Start: "09:00", End: "09:30"}},
		}},
	})
	require.NoError(t, err)
}

func TestSetSlotBookedIsConditional(t *testing.T) {
	repo := NewMemoryAvailabilityRepo()
	seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.SetSlotBooked(ctx, "0xabc", "2025-06-02", "s1", true))
	assert.ErrorIs(t, repo.SetSlotBooked(ctx, "0xabc", "2025-06-02", "s1", true), ErrSlotNotAvailable)

	require.NoError(t, repo.SetSlotBooked(ctx, "0xabc", "2025-06-02", "s1", false))
	assert.ErrorIs(t, repo.SetSlotBooked(ctx, "0xabc", "2025-06-02", "s1", false), ErrSlotNotAvailable)

	assert.ErrorIs(t, repo.SetSlotBooked(ctx, "0xabc", "2025-06-02", "missing", true), ErrSlotNotAvailable)
	assert.ErrorIs(t, repo.SetSlotBooked(ctx, "0xabc", "2025-06-03", "s1", true), ErrSlotNotAvailable)
	assert.ErrorIs(t, repo.SetSlotBooked(ctx, "0xdef", "2025-06-02", "s1", true), ErrSlotNotAvailable)
}

func TestSetSlotBookedSingleWinner(t *testing.T) {
	repo := NewMemoryAvailabilityRepo()
	seed(t, repo)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.SetSlotBooked(context.Background(), "0xabc", "2025-06-02", "s1", true) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestGetReturnsCopy(t *testing.T) {
	repo := NewMemoryAvailabilityRepo()
	seed(t, repo)

	doc, err := repo.GetByWalletAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	doc.AvailableDays[0].Slots[0].Booked = true

	again, err := repo.GetByWalletAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.False(t, again.AvailableDays[0].Slots[0].Booked)

	_, err = repo.GetByWalletAddress(context.Background(), "0xnone")
	assert.ErrorIs(t, err, ErrNotFound)
}

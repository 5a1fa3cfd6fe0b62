package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	availabilityRepo "slotchain/database/repository/availability"
	bookingRepo "slotchain/database/repository/booking"
	userRepo "slotchain/database/repository/user"
	"slotchain/models"
	"slotchain/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	creatorWallet = "0xcreator"
	slotDate      = "2025-06-02"
	slotID        = "slot-1"
)

type fakeMeetings struct {
	mu       sync.Mutex
	requests []models.MeetingRequest
	fail     error
	hook     func(ctx context.Context)
}

func (f *fakeMeetings) CreateMeeting(ctx context.Context, req models.MeetingRequest) (*models.Meeting, error) {
	if f.hook != nil {
		f.hook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.fail != nil {
		return nil, f.fail
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(f.requests)
	return &models.Meeting{
		ID:      fmt.Sprintf("%d", 1000+n),
		JoinURL: fmt.Sprintf("https://meet.example/j/%d", n),
		HostURL: fmt.Sprintf("https://meet.example/s/%d", n),
	}, nil
}

func (f *fakeMeetings) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.BookingEmail
	fail error
}

func (f *fakeNotifier) SendBookingEmails(_ context.Context, email models.BookingEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return f.fail
}

// flakyAvailability fails slot releases on demand.
type flakyAvailability struct {
	availabilityRepo.AvailabilityRepository
	failRelease bool
}

func (f *flakyAvailability) SetSlotBooked(ctx context.Context, wallet, date, id string, booked bool) error {
	if !booked && f.failRelease {
		return errors.New("mongo unavailable")
	}
	return f.AvailabilityRepository.SetSlotBooked(ctx, wallet, date, id, booked)
}

// failingBookings rejects every insert with err.
type failingBookings struct {
	bookingRepo.BookingRepository
	err error
}

func (f *failingBookings) Create(context.Context, *models.Booking) error { return f.err }

type harness struct {
	svc      *DefaultBookingService
	avail    *availabilityRepo.MemoryAvailabilityRepo
	flaky    *flakyAvailability
	bookings *bookingRepo.MemoryBookingRepo
	meetings *fakeMeetings
	notifier *fakeNotifier
	logs     *observer.ObservedLogs
	metrics  *utils.Metrics
}

func newHarness(t *testing.T, slots ...models.TimeSlot) *harness {
	t.Helper()
	if len(slots) == 0 {
		slots = []models.TimeSlot{{ID: slotID, Start: "09:00", End: "09:30"}}
	}
	avail := availabilityRepo.NewMemoryAvailabilityRepo()
	_, err := avail.Upsert(context.Background(), &models.Availability{
		WalletAddress: creatorWallet,
		Timezone:      "Europe/Berlin",
		Interval:      45,
		AvailableDays: []models.AvailableDay{{Date: slotDate, Slots: slots}},
	})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	h := &harness{
		avail:    avail,
		flaky:    &flakyAvailability{AvailabilityRepository: avail},
		bookings: bookingRepo.NewMemoryBookingRepo(),
		meetings: &fakeMeetings{},
		notifier: &fakeNotifier{},
		logs:     logs,
		metrics:  utils.NewMetrics(nil),
	}
	users := userRepo.NewMemoryUserRepo(models.User{WalletAddress: creatorWallet, FullName: "Ada", Email: "ada@example.com"})
	h.svc = NewDefaultBookingService(h.flaky, h.bookings, users, h.meetings, h.notifier, zap.New(core), h.metrics)
	return h
}

func request(token string) models.BookSlotRequest {
	return models.BookSlotRequest{
		CreatorAddress: "0xCREATOR",
		Date:           slotDate,
		SlotID:         slotID,
		BuyerEmail:     "buyer@example.com",
		BuyerName:      "Bob",
		TokenID:        token,
	}
}

func (h *harness) slotBooked(t *testing.T) bool {
	t.Helper()
	doc, err := h.avail.GetByWalletAddress(context.Background(), creatorWallet)
	require.NoError(t, err)
	return doc.Day(slotDate).Slot(slotID).Booked
}

func TestBookSlotSuccess(t *testing.T) {
	h := newHarness(t)

	conf, err := h.svc.BookSlot(context.Background(), request("7"))
	require.NoError(t, err)

	assert.True(t, conf.Slot.Booked)
	assert.Equal(t, slotID, conf.Slot.ID)
	assert.Equal(t, "https://meet.example/j/1", conf.Meeting.JoinURL)
	assert.Equal(t, "Europe/Berlin", conf.Meeting.Timezone)
	assert.True(t, h.slotBooked(t))

	require.Len(t, h.meetings.requests, 1)
	mreq := h.meetings.requests[0]
	assert.Equal(t, "SlotChain Session with Ada", mreq.Topic)
	assert.Equal(t, "Consultation between Ada and Bob", mreq.Agenda)
	assert.Equal(t, "2025-06-02T09:00:00", mreq.StartTimeLocal)
	assert.Equal(t, 30, mreq.DurationMinutes)

	stored, err := h.bookings.GetByTokenID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, creatorWallet, stored.CreatorWalletAddress)
	assert.Equal(t, "buyer@example.com", stored.BuyerEmail)
	assert.Equal(t, "1001", stored.MeetingID)
	assert.Equal(t, time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC), stored.MeetingStartTime)
	assert.Equal(t, time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC), stored.MeetingEndTime)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "ada@example.com", h.notifier.sent[0].CreatorEmail)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Bookings.WithLabelValues("success")))
}

func TestBookSlotRejectsDoubleBooking(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.BookSlot(context.Background(), request("1"))
	require.NoError(t, err)

	_, err = h.svc.BookSlot(context.Background(), request("2"))
	assert.True(t, utils.IsKind(err, utils.KindConflict), "got %v", err)
	assert.True(t, h.slotBooked(t))
	assert.Equal(t, 1, h.bookings.Len())
	assert.Equal(t, 1, h.meetings.created())
}

func TestBookSlotConcurrentSingleWinner(t *testing.T) {
	h := newHarness(t)

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.svc.BookSlot(context.Background(), request(fmt.Sprintf("%d", 100+i)))
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case utils.IsKind(err, utils.KindConflict):
				atomic.AddInt32(&conflicts, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(9), conflicts)
	assert.Equal(t, 1, h.bookings.Len())
	assert.Equal(t, 1, h.meetings.created())
}

func TestBookSlotDuplicateTokenTouchesNothing(t *testing.T) {
	h := newHarness(t,
		models.TimeSlot{ID: slotID, Start: "09:00", End: "09:30"},
		models.TimeSlot{ID: "slot-2", Start: "10:00", End: "10:30"},
	)
	_, err := h.svc.BookSlot(context.Background(), request("9"))
	require.NoError(t, err)

	req := request("9")
	req.SlotID = "slot-2"
	_, err = h.svc.BookSlot(context.Background(), req)
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	doc, _ := h.avail.GetByWalletAddress(context.Background(), creatorWallet)
	assert.False(t, doc.Day(slotDate).Slot("slot-2").Booked)
	assert.Equal(t, 1, h.meetings.created())
}

func TestBookSlotMeetingFailureReleasesSlot(t *testing.T) {
	h := newHarness(t)
	h.meetings.fail = errors.New("zoom returned 500")

	_, err := h.svc.BookSlot(context.Background(), request("3"))
	assert.True(t, utils.IsKind(err, utils.KindUpstream), "got %v", err)
	assert.False(t, h.slotBooked(t))
	assert.Zero(t, h.bookings.Len())
	assert.Empty(t, h.notifier.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Compensations.WithLabelValues("released")))
}

func TestBookSlotPersistenceFailureReleasesSlotAndOrphansMeeting(t *testing.T) {
	h := newHarness(t)
	h.svc.Bookings = &failingBookings{BookingRepository: h.bookings, err: bookingRepo.ErrDuplicateTokenID}

	_, err := h.svc.BookSlot(context.Background(), request("4"))
	assert.True(t, utils.IsKind(err, utils.KindConflict), "got %v", err)
	assert.False(t, h.slotBooked(t))
	// No provider-side delete exists, so the meeting is left behind.
	assert.Equal(t, 1, h.meetings.created())
	assert.Empty(t, h.notifier.sent)
}

func TestBookSlotNotifierFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	h.notifier.fail = errors.New("sendgrid down")

	conf, err := h.svc.BookSlot(context.Background(), request("5"))
	require.NoError(t, err)
	assert.NotNil(t, conf)
	assert.True(t, h.slotBooked(t))
	assert.Equal(t, 1, h.logs.FilterMessage("Booking emails were not sent").Len())
}

func TestBookSlotCancelledCallerStillReleases(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.meetings.hook = func(context.Context) { cancel() }

	_, err := h.svc.BookSlot(ctx, request("6"))
	assert.True(t, utils.IsKind(err, utils.KindUpstream), "got %v", err)
	assert.False(t, h.slotBooked(t))
}

func TestBookSlotCompensationFailureKeepsOriginalError(t *testing.T) {
	h := newHarness(t)
	h.meetings.fail = errors.New("zoom timeout")
	h.flaky.failRelease = true

	_, err := h.svc.BookSlot(context.Background(), request("8"))
	assert.True(t, utils.IsKind(err, utils.KindUpstream), "got %v", err)
	assert.True(t, h.slotBooked(t))

	entries := h.logs.FilterMessage("Failed to release slot after booking failure").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, true, entries[0].ContextMap()["inconsistency"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Compensations.WithLabelValues("failed")))
}

func TestBookSlotDurationFallsBackToInterval(t *testing.T) {
	h := newHarness(t, models.TimeSlot{ID: slotID, Start: "09:00", End: "09:00"})

	conf, err := h.svc.BookSlot(context.Background(), request("10"))
	require.NoError(t, err)
	assert.Equal(t, 45, h.meetings.requests[0].DurationMinutes)
	assert.Equal(t, 45*time.Minute, conf.Meeting.EndTime.Sub(conf.Meeting.StartTime))
}

func TestBookSlotPreconditions(t *testing.T) {
	cases := map[string]struct {
		mutate func(*models.BookSlotRequest)
		kind   utils.ErrorKind
	}{
		"missing email":   {func(r *models.BookSlotRequest) { r.BuyerEmail = " " }, utils.KindValidation},
		"bad email":       {func(r *models.BookSlotRequest) { r.BuyerEmail = "bob" }, utils.KindValidation},
		"missing token":   {func(r *models.BookSlotRequest) { r.TokenID = "" }, utils.KindValidation},
		"unknown creator": {func(r *models.BookSlotRequest) { r.CreatorAddress = "0xother" }, utils.KindNotFound},
		"unknown day":     {func(r *models.BookSlotRequest) { r.Date = "2025-06-03" }, utils.KindNotFound},
		"unknown slot":    {func(r *models.BookSlotRequest) { r.SlotID = "nope" }, utils.KindNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			req := request("11")
			tc.mutate(&req)

			_, err := h.svc.BookSlot(context.Background(), req)
			assert.True(t, utils.IsKind(err, tc.kind), "got %v", err)
			assert.False(t, h.slotBooked(t))
			assert.Zero(t, h.meetings.created())
		})
	}
}

func TestBookSlotRequiresCreatorEmail(t *testing.T) {
	h := newHarness(t)
	h.svc.Users = userRepo.NewMemoryUserRepo(models.User{WalletAddress: creatorWallet, FullName: "Ada"})

	_, err := h.svc.BookSlot(context.Background(), request("12"))
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	assert.False(t, h.slotBooked(t))
}

func TestBookSlotCreatorNameFallsBackToWallet(t *testing.T) {
	h := newHarness(t)
	h.svc.Users = userRepo.NewMemoryUserRepo(models.User{WalletAddress: creatorWallet, Email: "ada@example.com"})

	_, err := h.svc.BookSlot(context.Background(), request("13"))
	require.NoError(t, err)
	assert.Equal(t, "SlotChain Session with 0xcreator", h.meetings.requests[0].Topic)
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"meetwise/models"
	"meetwise/services/gcal"
	"meetwise/utils"
)

type fakeProvider struct {
	busy          []models.TimeInterval
	freeBusyErr   error
	insertErr     error
	result        *models.BookingResult
	freeBusyCalls int
	insertCalls   int
	lastEvent     gcal.EventInput
	nonces        []string
}

func (f *fakeProvider) FreeBusy(ctx context.Context, token, calendarID string, timeMin, timeMax time.Time, tz string) ([]models.TimeInterval, error) {
	f.freeBusyCalls++
	if f.freeBusyErr != nil {
		return nil, f.freeBusyErr
	}
	return f.busy, nil
}

func (f *fakeProvider) InsertEvent(ctx context.Context, token, calendarID string, ev gcal.EventInput) (*models.BookingResult, error) {
	f.insertCalls++
	f.lastEvent = ev
	f.nonces = append(f.nonces, ev.ConferenceRequestID)
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.BookingResult{EventID: "evt-1", CalendarViewLink: "https://calendar.example/evt-1"}, nil
}

type memHoldStore struct {
	holds map[string]string
}

func newMemHoldStore() *memHoldStore {
	return &memHoldStore{holds: make(map[string]string)}
}

func (s *memHoldStore) key(calendarID string, slot models.TimeInterval) string {
	return fmt.Sprintf("%s:%d-%d", calendarID, slot.Start.Unix(), slot.End.Unix())
}

func (s *memHoldStore) Place(ctx context.Context, calendarID string, slot models.TimeInterval, owner string, ttl time.Duration) (bool, error) {
	k := s.key(calendarID, slot)
	if current, ok := s.holds[k]; ok && current != owner {
		return false, nil
	}
	s.holds[k] = owner
	return true, nil
}

func (s *memHoldStore) Release(ctx context.Context, calendarID string, slot models.TimeInterval, owner string) error {
	k := s.key(calendarID, slot)
	if current, ok := s.holds[k]; ok && current != owner {
		return errors.New("hold owned by another caller")
	}
	delete(s.holds, k)
	return nil
}

func (s *memHoldStore) Owner(ctx context.Context, calendarID string, slot models.TimeInterval) (string, error) {
	return s.holds[s.key(calendarID, slot)], nil
}

var fixedNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func newEngine(provider *fakeProvider, holds HoldStore) *DefaultEngine {
	return &DefaultEngine{
		Provider: provider,
		Holds:    holds,
		Now:      func() time.Time { return fixedNow },
	}
}

func dayQuery() AvailabilityQuery {
	return AvailabilityQuery{
		Request: models.AvailabilityRequest{
			Date:         "2026-09-01",
			Timezone:     "UTC",
			SlotDuration: 30 * time.Minute,
			SlotStride:   30 * time.Minute,
			WorkdayStart: 9 * 60,
			WorkdayEnd:   11 * 60,
		},
	}
}

func futureSlot(hour int) models.TimeInterval {
	return models.TimeInterval{
		Start: time.Date(2026, 9, 1, hour, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 1, hour, 30, 0, 0, time.UTC),
	}
}

func bookingFor(slot models.TimeInterval) models.BookingRequest {
	return models.BookingRequest{
		Slot:     slot,
		Timezone: "UTC",
		Title:    "Intro call",
	}
}

var cred = Credential{AccessToken: "token", CalendarID: "primary"}

func TestGetAvailability_NormalizesBusyAndComputes(t *testing.T) {
	provider := &fakeProvider{busy: []models.TimeInterval{futureSlot(9)}}
	engine := newEngine(provider, nil)

	slots, err := engine.GetAvailability(context.Background(), cred, dayQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 09:00-11:00 at 30m with 09:00-09:30 busy leaves three slots.
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if provider.freeBusyCalls != 1 {
		t.Fatalf("expected one free/busy call, got %d", provider.freeBusyCalls)
	}
}

func TestGetAvailability_ProviderFailureIsTypedNotEmpty(t *testing.T) {
	provider := &fakeProvider{
		freeBusyErr: gcal.ClassifyQueryError(context.DeadlineExceeded),
	}
	engine := newEngine(provider, nil)

	slots, err := engine.GetAvailability(context.Background(), cred, dayQuery())
	if slots != nil {
		t.Fatal("slots must not be fabricated on provider failure")
	}
	if utils.EngineErrorCode(err) != utils.CodeProviderUnavailable {
		t.Fatalf("expected providerUnavailable, got %v", err)
	}
}

func TestGetAvailability_MissingCredential(t *testing.T) {
	provider := &fakeProvider{}
	engine := newEngine(provider, nil)

	_, err := engine.GetAvailability(context.Background(), Credential{}, dayQuery())
	if utils.EngineErrorCode(err) != utils.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if provider.freeBusyCalls != 0 {
		t.Fatal("provider must not be called without a credential")
	}
}

func TestGetAvailability_FiltersSlotsHeldByOthers(t *testing.T) {
	provider := &fakeProvider{}
	holds := newMemHoldStore()
	engine := newEngine(provider, holds)

	held := futureSlot(9)
	if ok, _ := holds.Place(context.Background(), "primary", held, "other-caller", time.Minute); !ok {
		t.Fatal("failed to seed hold")
	}
	mine := futureSlot(10)
	if ok, _ := holds.Place(context.Background(), "primary", mine, "me", time.Minute); !ok {
		t.Fatal("failed to seed own hold")
	}

	q := dayQuery()
	q.HolderID = "me"
	slots, err := engine.GetAvailability(context.Background(), cred, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 4 candidates; 09:00 is held by someone else, own hold at 10:00 stays.
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Start.Equal(held.Start) {
			t.Fatal("slot held by another caller must be filtered out")
		}
	}
}

func TestBook_InvalidSlotSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	engine := newEngine(provider, nil)

	req := bookingFor(models.TimeInterval{
		Start: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
	})
	_, err := engine.Book(context.Background(), cred, req)
	if utils.EngineErrorCode(err) != utils.CodeInvalidParameters {
		t.Fatalf("expected invalidParameters, got %v", err)
	}
	if provider.insertCalls != 0 {
		t.Fatal("provider must not be called for invalid local input")
	}
}

func TestBook_PastSlotRejected(t *testing.T) {
	provider := &fakeProvider{}
	engine := newEngine(provider, nil)

	past := models.TimeInterval{
		Start: fixedNow.Add(-time.Hour),
		End:   fixedNow.Add(-30 * time.Minute),
	}
	_, err := engine.Book(context.Background(), cred, bookingFor(past))
	if utils.EngineErrorCode(err) != utils.CodeInvalidParameters {
		t.Fatalf("expected invalidParameters, got %v", err)
	}
	if provider.insertCalls != 0 {
		t.Fatal("provider must not be called for a past slot")
	}
}

func TestBook_Success(t *testing.T) {
	provider := &fakeProvider{result: &models.BookingResult{
		EventID:          "evt-42",
		CalendarViewLink: "https://calendar.example/evt-42",
		VideoJoinLink:    "https://meet.example/abc",
	}}
	engine := newEngine(provider, nil)

	result, err := engine.Book(context.Background(), cred, bookingFor(futureSlot(10)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EventID != "evt-42" || result.VideoJoinLink != "https://meet.example/abc" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if provider.lastEvent.ConferenceRequestID == "" {
		t.Fatal("expected a conference request nonce")
	}
}

func TestBook_MissingVideoLinkIsNotAFailure(t *testing.T) {
	provider := &fakeProvider{result: &models.BookingResult{
		EventID:          "evt-7",
		CalendarViewLink: "https://calendar.example/evt-7",
	}}
	engine := newEngine(provider, nil)

	result, err := engine.Book(context.Background(), cred, bookingFor(futureSlot(10)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VideoJoinLink != "" {
		t.Fatalf("expected absent video link, got %q", result.VideoJoinLink)
	}
}

func TestBook_FreshNoncePerAttempt(t *testing.T) {
	provider := &fakeProvider{}
	engine := newEngine(provider, nil)

	if _, err := engine.Book(context.Background(), cred, bookingFor(futureSlot(10))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Book(context.Background(), cred, bookingFor(futureSlot(11))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.nonces) != 2 || provider.nonces[0] == provider.nonces[1] {
		t.Fatalf("expected distinct nonces across attempts, got %v", provider.nonces)
	}
}

func TestBook_ProviderConflictSurfacesAsRejected(t *testing.T) {
	provider := &fakeProvider{
		insertErr: utils.NewEngineError(utils.CodeBookingRejected, "provider declined the booking with status 409", nil),
	}
	engine := newEngine(provider, nil)

	_, err := engine.Book(context.Background(), cred, bookingFor(futureSlot(10)))
	if utils.EngineErrorCode(err) != utils.CodeBookingRejected {
		t.Fatalf("expected bookingRejected, got %v", err)
	}
}

func TestBook_SlotHeldByAnotherCaller(t *testing.T) {
	provider := &fakeProvider{}
	holds := newMemHoldStore()
	engine := newEngine(provider, holds)

	slot := futureSlot(10)
	if ok, _ := holds.Place(context.Background(), "primary", slot, "other-caller", time.Minute); !ok {
		t.Fatal("failed to seed hold")
	}

	req := bookingFor(slot)
	req.HolderID = "me"
	_, err := engine.Book(context.Background(), cred, req)
	if utils.EngineErrorCode(err) != utils.CodeBookingRejected {
		t.Fatalf("expected bookingRejected, got %v", err)
	}
	if provider.insertCalls != 0 {
		t.Fatal("provider must not be called when the slot is held by another caller")
	}
}

func TestBook_ReleasesOwnHoldAfterSuccess(t *testing.T) {
	provider := &fakeProvider{}
	holds := newMemHoldStore()
	engine := newEngine(provider, holds)

	slot := futureSlot(10)
	if ok, _ := holds.Place(context.Background(), "primary", slot, "me", time.Minute); !ok {
		t.Fatal("failed to seed hold")
	}

	req := bookingFor(slot)
	req.HolderID = "me"
	if _, err := engine.Book(context.Background(), cred, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	owner, _ := holds.Owner(context.Background(), "primary", slot)
	if owner != "" {
		t.Fatalf("expected hold released after booking, still owned by %q", owner)
	}
}

package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meetwise/models"
	"meetwise/services/availability"
	"meetwise/services/gcal"
	"meetwise/utils"
)

// Credential identifies the provider calendar a call operates on. The bearer
// token is supplied by the caller's session and is read-only to the engine.
type Credential struct {
	AccessToken string
	CalendarID  string
}

// AvailabilityQuery is one GetAvailability call. HolderID, when set, keeps
// the caller's own held slots visible while hiding slots held by others.
type AvailabilityQuery struct {
	Request  models.AvailabilityRequest
	HolderID string
}

// Engine exposes the two booking-engine operations. Both are stateless round
// trips against the provider; results always reflect current provider truth.
type Engine interface {
	GetAvailability(ctx context.Context, cred Credential, q AvailabilityQuery) ([]models.TimeInterval, error)
	Book(ctx context.Context, cred Credential, req models.BookingRequest) (*models.BookingResult, error)
}

// DefaultEngine implements Engine against a calendar provider client and an
// optional advisory hold store.
type DefaultEngine struct {
	Provider gcal.Client
	Holds    HoldStore        // nil disables holds
	Now      func() time.Time // injectable for tests; defaults to time.Now
}

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// GetAvailability fetches current busy intervals from the provider and
// delegates to the availability calculator. A provider failure surfaces as a
// typed error, never as an empty slot list.
func (e *DefaultEngine) GetAvailability(ctx context.Context, cred Credential, q AvailabilityQuery) ([]models.TimeInterval, error) {
	if cred.AccessToken == "" {
		return nil, utils.NewEngineError(utils.CodeUnauthorized, "missing calendar credential", nil)
	}

	dayStart, dayEnd, err := availability.Workday(q.Request)
	if err != nil {
		return nil, err
	}

	busy, err := e.Provider.FreeBusy(ctx, cred.AccessToken, cred.CalendarID, dayStart, dayEnd, q.Request.Timezone)
	if err != nil {
		return nil, err
	}

	slots, err := availability.ComputeSlots(q.Request, busy)
	if err != nil {
		return nil, err
	}
	return e.filterHeld(ctx, cred.CalendarID, slots, q.HolderID), nil
}

// Book validates the request locally, then submits the event with a fresh
// conference nonce. No re-check-then-book locking happens here; a concurrent
// conflict is the provider's to reject and surfaces as a bookingRejected.
func (e *DefaultEngine) Book(ctx context.Context, cred Credential, req models.BookingRequest) (*models.BookingResult, error) {
	if cred.AccessToken == "" {
		return nil, utils.NewEngineError(utils.CodeUnauthorized, "missing calendar credential", nil)
	}
	if err := e.validateBooking(req); err != nil {
		return nil, err
	}
	if err := e.checkHold(ctx, cred.CalendarID, req); err != nil {
		return nil, err
	}

	ev := gcal.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Timezone:    req.Timezone,
		Start:       req.Slot.Start,
		End:         req.Slot.End,
		Attendee:    req.Attendee,
		// Fresh nonce per attempt; reusing one across distinct attempts
		// would silently collapse them into a single conference.
		ConferenceRequestID: uuid.New().String(),
	}

	result, err := e.Provider.InsertEvent(ctx, cred.AccessToken, cred.CalendarID, ev)
	if err != nil {
		return nil, err
	}

	if e.Holds != nil && req.HolderID != "" {
		// Best effort: the hold expires on its own either way.
		if err := e.Holds.Release(ctx, cred.CalendarID, req.Slot, req.HolderID); err != nil {
			utils.GetLogger().Warn("failed to release slot hold after booking",
				zap.String("holder", req.HolderID), zap.Error(err))
		}
	}
	return result, nil
}

func (e *DefaultEngine) validateBooking(req models.BookingRequest) error {
	invalid := func(msg string) error {
		return utils.NewEngineError(utils.CodeInvalidParameters, msg, nil)
	}
	if req.Slot.Start.IsZero() || req.Slot.End.IsZero() {
		return invalid("slot start and end are required")
	}
	if !req.Slot.Start.Before(req.Slot.End) {
		return invalid("slot start must precede slot end")
	}
	if !req.Slot.Start.After(e.now()) {
		return invalid("slot must lie in the future")
	}
	if req.Title == "" {
		return invalid("title is required")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return utils.NewEngineError(utils.CodeInvalidParameters, "unknown timezone", err)
	}
	return nil
}

// checkHold rejects a booking for a slot currently held by someone else.
func (e *DefaultEngine) checkHold(ctx context.Context, calendarID string, req models.BookingRequest) error {
	if e.Holds == nil {
		return nil
	}
	owner, err := e.Holds.Owner(ctx, calendarID, req.Slot)
	if err != nil {
		// Holds are advisory; a degraded store must not block bookings.
		utils.GetLogger().Warn("hold store lookup failed, proceeding without hold check", zap.Error(err))
		return nil
	}
	if owner != "" && owner != req.HolderID {
		return utils.NewEngineError(utils.CodeBookingRejected, "slot is held by another caller", nil)
	}
	return nil
}

// filterHeld drops slots held by callers other than holderID. A hold-store
// failure degrades to the unfiltered list.
func (e *DefaultEngine) filterHeld(ctx context.Context, calendarID string, slots []models.TimeInterval, holderID string) []models.TimeInterval {
	if e.Holds == nil || len(slots) == 0 {
		return slots
	}
	kept := make([]models.TimeInterval, 0, len(slots))
	for _, slot := range slots {
		owner, err := e.Holds.Owner(ctx, calendarID, slot)
		if err != nil {
			utils.GetLogger().Warn("hold store lookup failed, returning unfiltered slots", zap.Error(err))
			return slots
		}
		if owner != "" && owner != holderID {
			continue
		}
		kept = append(kept, slot)
	}
	return kept
}

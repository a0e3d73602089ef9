// Package availability computes bookable slots for a single day. It performs
// no I/O; busy intervals come from the caller (normally the booking engine's
// provider free/busy query).
package availability

import (
	"fmt"
	"time"

	"meetwise/models"
	"meetwise/utils"
)

const minutesPerDay = 24 * 60

// Workday resolves the request's workday bounds to absolute instants in the
// request's timezone.
func Workday(req models.AvailabilityRequest) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewEngineError(utils.CodeInvalidParameters,
			fmt.Sprintf("unknown timezone %q", req.Timezone), err)
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewEngineError(utils.CodeInvalidParameters,
			fmt.Sprintf("invalid date %q, want YYYY-MM-DD", req.Date), err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, req.WorkdayStart, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), 0, req.WorkdayEnd, 0, 0, loc)
	return start, end, nil
}

// ComputeSlots walks the workday in stride steps and returns every candidate
// window that does not overlap a busy interval, in chronological order.
//
// Busy intervals may arrive unsorted and overlapping; a candidate is rejected
// as soon as it overlaps any of them. Candidates may overlap each other when
// the stride is shorter than the duration. Past slots are not filtered here;
// that policy belongs to the caller.
func ComputeSlots(req models.AvailabilityRequest, busy []models.TimeInterval) ([]models.TimeInterval, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	dayStart, dayEnd, err := Workday(req)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), 0, 0, 0, 0, dayStart.Location())

	// Round the cursor up to the next stride multiple from midnight so slots
	// land on clean boundaries even for an odd workday start.
	offset := dayStart.Sub(midnight)
	if rem := offset % req.SlotStride; rem != 0 {
		offset += req.SlotStride - rem
	}

	var slots []models.TimeInterval
	for cursor := midnight.Add(offset); !cursor.Add(req.SlotDuration).After(dayEnd); cursor = cursor.Add(req.SlotStride) {
		candidate := models.TimeInterval{Start: cursor, End: cursor.Add(req.SlotDuration)}
		if overlapsAny(candidate, busy) {
			continue
		}
		slots = append(slots, candidate)
	}
	return slots, nil
}

func overlapsAny(candidate models.TimeInterval, busy []models.TimeInterval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

func validate(req models.AvailabilityRequest) error {
	invalid := func(msg string) error {
		return utils.NewEngineError(utils.CodeInvalidParameters, msg, nil)
	}
	if req.SlotDuration <= 0 {
		return invalid("slot duration must be positive")
	}
	if req.SlotStride <= 0 {
		return invalid("slot stride must be positive")
	}
	if req.WorkdayStart < 0 || req.WorkdayEnd > minutesPerDay {
		return invalid("workday bounds must fall within the day")
	}
	if req.WorkdayStart >= req.WorkdayEnd {
		return invalid("workday start must precede workday end")
	}
	window := time.Duration(req.WorkdayEnd-req.WorkdayStart) * time.Minute
	if req.SlotDuration > window {
		return invalid("slot duration exceeds the workday window")
	}
	return nil
}

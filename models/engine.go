package models

import "time"

// TimeInterval is a half-open window [Start, End). Start precedes End.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back intervals do not overlap.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// AvailabilityRequest describes one day's slot computation.
// Workday bounds are minutes from midnight in Timezone.
type AvailabilityRequest struct {
	Date         string // "2006-01-02"
	Timezone     string // IANA zone, e.g. "Europe/Madrid"
	SlotDuration time.Duration
	SlotStride   time.Duration
	WorkdayStart int // minutes from midnight (e.g., 540 for 9:00 AM)
	WorkdayEnd   int // minutes from midnight (e.g., 1080 for 6:00 PM)
}

// BookingRequest is a caller's commitment to a chosen slot. Never mutated
// after construction.
type BookingRequest struct {
	Slot        TimeInterval
	Timezone    string
	Title       string
	Description string
	Attendee    string // optional attendee email
	HolderID    string // optional advisory-hold owner
}

// BookingResult is the normalized outcome of a successful provider booking.
type BookingResult struct {
	EventID          string `json:"eventId"`
	CalendarViewLink string `json:"htmlLink"`
	VideoJoinLink    string `json:"meetLink,omitempty"`
}

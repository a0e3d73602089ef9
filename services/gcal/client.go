// Package gcal is the typed boundary to the Google Calendar provider. All
// provider JSON is normalized here; schema drift stays in this package.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"meetwise/models"
	"meetwise/utils"
)

// hangoutsMeet is the conference solution requested on event creation.
const conferenceSolution = "hangoutsMeet"

// videoEntryPoint tags the joinable conference link among the returned entry points.
const videoEntryPoint = "video"

// EventInput carries everything the provider needs to create a booked event.
type EventInput struct {
	Title       string
	Description string
	Timezone    string
	Start       time.Time
	End         time.Time
	Attendee    string // optional
	// ConferenceRequestID makes conference creation idempotent against
	// retries of the same attempt. Generated fresh per booking attempt.
	ConferenceRequestID string
}

// Client is the provider interface the booking engine depends on.
type Client interface {
	FreeBusy(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time, timezone string) ([]models.TimeInterval, error)
	InsertEvent(ctx context.Context, accessToken, calendarID string, ev EventInput) (*models.BookingResult, error)
}

// DefaultClient talks to the real Google Calendar API with a caller-supplied
// bearer credential per call. The engine never refreshes credentials.
type DefaultClient struct {
	FreeBusyTimeout time.Duration
	InsertTimeout   time.Duration
}

func NewDefaultClient(freeBusyTimeout, insertTimeout time.Duration) *DefaultClient {
	return &DefaultClient{FreeBusyTimeout: freeBusyTimeout, InsertTimeout: insertTimeout}
}

func (c *DefaultClient) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, utils.NewEngineError(utils.CodeProviderUnavailable, "failed to build calendar client", err)
	}
	return svc, nil
}

// FreeBusy returns the owner's busy intervals over [timeMin, timeMax).
func (c *DefaultClient) FreeBusy(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time, timezone string) ([]models.TimeInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, c.FreeBusyTimeout)
	defer cancel()

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin:  timeMin.Format(time.RFC3339),
		TimeMax:  timeMax.Format(time.RFC3339),
		TimeZone: timezone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, ClassifyQueryError(err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, utils.NewEngineError(utils.CodeProviderUnavailable,
			fmt.Sprintf("free/busy response missing calendar %q", calendarID), nil)
	}
	busy := make([]models.TimeInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, utils.NewEngineError(utils.CodeProviderUnavailable, "malformed busy period start", err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, utils.NewEngineError(utils.CodeProviderUnavailable, "malformed busy period end", err)
		}
		busy = append(busy, models.TimeInterval{Start: start, End: end})
	}
	return busy, nil
}

// InsertEvent books the event with a conference create request attached and
// normalizes the provider's response.
func (c *DefaultClient) InsertEvent(ctx context.Context, accessToken, calendarID string, ev EventInput) (*models.BookingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.InsertTimeout)
	defer cancel()

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             ev.ConferenceRequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: conferenceSolution},
			},
		},
	}
	if ev.Attendee != "" {
		event.Attendees = []*calendar.EventAttendee{{Email: ev.Attendee}}
	}

	created, err := svc.Events.Insert(calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, ClassifyBookingError(err)
	}

	return &models.BookingResult{
		EventID:          created.Id,
		CalendarViewLink: created.HtmlLink,
		VideoJoinLink:    VideoJoinLink(created),
	}, nil
}

// VideoJoinLink extracts the joinable video link from a created event, or ""
// when the provider attached no conference. A missing link is not a failure.
func VideoJoinLink(ev *calendar.Event) string {
	if ev == nil || ev.ConferenceData == nil {
		return ""
	}
	for _, entry := range ev.ConferenceData.EntryPoints {
		if entry != nil && entry.EntryPointType == videoEntryPoint {
			return entry.Uri
		}
	}
	return ""
}

// ClassifyQueryError maps a free/busy failure onto the engine taxonomy.
// Free/busy carries no request content worth rejecting, so everything that is
// not an auth failure is a channel failure.
func ClassifyQueryError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 401 || gerr.Code == 403 {
			return utils.NewEngineError(utils.CodeUnauthorized, "calendar credential rejected by provider", err)
		}
		return utils.NewEngineError(utils.CodeProviderUnavailable,
			fmt.Sprintf("free/busy query failed with status %d", gerr.Code), err)
	}
	return utils.NewEngineError(utils.CodeProviderUnavailable, "free/busy query failed", err)
}

// ClassifyBookingError maps an event-insert failure onto the engine taxonomy.
// 4xx responses are about the request content (conflict, quota, bad payload);
// everything else is the channel. A cancellation or timeout after the insert
// was sent does not mean the booking did not happen, so the message says so.
func ClassifyBookingError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return utils.NewEngineError(utils.CodeProviderUnavailable,
			"booking call interrupted; the booking may have succeeded upstream, re-query availability to confirm", err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return utils.NewEngineError(utils.CodeUnauthorized, "calendar credential rejected by provider", err)
		case gerr.Code >= 400 && gerr.Code < 500:
			return utils.NewEngineError(utils.CodeBookingRejected,
				fmt.Sprintf("provider declined the booking with status %d", gerr.Code), err)
		default:
			return utils.NewEngineError(utils.CodeProviderUnavailable,
				fmt.Sprintf("event creation failed with status %d", gerr.Code), err)
		}
	}
	return utils.NewEngineError(utils.CodeProviderUnavailable, "event creation failed", err)
}

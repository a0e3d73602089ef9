package gcal

import (
	"context"
	"fmt"
	"strings"
	"testing"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"meetwise/utils"
)

func TestClassifyQueryError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", context.DeadlineExceeded, utils.CodeProviderUnavailable},
		{"expired credential", &googleapi.Error{Code: 401}, utils.CodeUnauthorized},
		{"forbidden", &googleapi.Error{Code: 403}, utils.CodeUnauthorized},
		{"server error", &googleapi.Error{Code: 503}, utils.CodeProviderUnavailable},
		{"network failure", fmt.Errorf("dial tcp: connection refused"), utils.CodeProviderUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := utils.EngineErrorCode(ClassifyQueryError(tc.err)); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassifyBookingError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"conflict", &googleapi.Error{Code: 409}, utils.CodeBookingRejected},
		{"quota", &googleapi.Error{Code: 429}, utils.CodeBookingRejected},
		{"expired credential", &googleapi.Error{Code: 401}, utils.CodeUnauthorized},
		{"server error", &googleapi.Error{Code: 500}, utils.CodeProviderUnavailable},
		{"timeout", context.DeadlineExceeded, utils.CodeProviderUnavailable},
		{"cancelled mid-flight", context.Canceled, utils.CodeProviderUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := utils.EngineErrorCode(ClassifyBookingError(tc.err)); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassifyBookingError_CancellationNotesPossibleSuccess(t *testing.T) {
	// A cancelled insert is not "definitely did not happen".
	err := ClassifyBookingError(context.Canceled)
	if !strings.Contains(err.Error(), "may have succeeded") {
		t.Fatalf("expected cancellation to flag possible upstream success, got %q", err.Error())
	}
}

func TestVideoJoinLink(t *testing.T) {
	withVideo := &calendar.Event{
		ConferenceData: &calendar.ConferenceData{
			EntryPoints: []*calendar.EntryPoint{
				{EntryPointType: "phone", Uri: "tel:+1-555-0100"},
				{EntryPointType: "video", Uri: "https://meet.google.com/abc-defg-hij"},
			},
		},
	}
	if got := VideoJoinLink(withVideo); got != "https://meet.google.com/abc-defg-hij" {
		t.Fatalf("expected the video entry point, got %q", got)
	}

	phoneOnly := &calendar.Event{
		ConferenceData: &calendar.ConferenceData{
			EntryPoints: []*calendar.EntryPoint{
				{EntryPointType: "phone", Uri: "tel:+1-555-0100"},
			},
		},
	}
	if got := VideoJoinLink(phoneOnly); got != "" {
		t.Fatalf("expected no video link, got %q", got)
	}

	if got := VideoJoinLink(&calendar.Event{}); got != "" {
		t.Fatalf("expected no video link for missing conference data, got %q", got)
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meetwise/config"
	"meetwise/middleware"
	"meetwise/models"
	"meetwise/services/booking"
	"meetwise/utils"
)

// EngineHandler exposes the booking engine over HTTP.
type EngineHandler struct {
	Engine  booking.Engine
	Holds   booking.HoldStore
	HoldTTL time.Duration
	Logger  *zap.Logger
}

func NewEngineHandler(engine booking.Engine, holds booking.HoldStore, holdTTL time.Duration, logger *zap.Logger) *EngineHandler {
	return &EngineHandler{Engine: engine, Holds: holds, HoldTTL: holdTTL, Logger: logger}
}

type availabilityInput struct {
	Date            string `json:"date" binding:"required"`
	Timezone        string `json:"timezone" binding:"required"`
	DurationMinutes int    `json:"durationMinutes"`
	StrideMinutes   int    `json:"strideMinutes"`
	WorkdayStart    string `json:"workdayStart"` // "09:00"
	WorkdayEnd      string `json:"workdayEnd"`   // "18:00"
	CalendarID      string `json:"calendarId"`
	HolderID        string `json:"holderId"`
}

// GetAvailability computes bookable slots for a day from the provider's
// current busy intervals.
func (h *EngineHandler) GetAvailability(c *gin.Context) {
	var input availabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	req, err := h.availabilityRequest(input)
	if err != nil {
		utils.RespondEngineError(c, err)
		return
	}

	cred := booking.Credential{
		AccessToken: middleware.CalendarToken(c),
		CalendarID:  calendarIDOrDefault(input.CalendarID),
	}
	slots, err := h.Engine.GetAvailability(c.Request.Context(), cred, booking.AvailabilityQuery{
		Request:  req,
		HolderID: input.HolderID,
	})
	if err != nil {
		utils.RespondEngineError(c, err)
		return
	}

	// An empty day is a valid answer, distinct from any failure.
	if slots == nil {
		slots = []models.TimeInterval{}
	}
	c.JSON(http.StatusOK, gin.H{
		"timezone":        req.Timezone,
		"durationMinutes": int(req.SlotDuration / time.Minute),
		"slots":           slots,
	})
}

type bookInput struct {
	Start         time.Time `json:"start" binding:"required"`
	End           time.Time `json:"end" binding:"required"`
	Timezone      string    `json:"timezone" binding:"required"`
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	AttendeeEmail string    `json:"attendeeEmail"`
	CalendarID    string    `json:"calendarId"`
	HolderID      string    `json:"holderId"`
}

// BookSlot reserves the chosen slot on the provider calendar and returns the
// event id, the calendar view link and the video join link when present.
func (h *EngineHandler) BookSlot(c *gin.Context) {
	var input bookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	cred := booking.Credential{
		AccessToken: middleware.CalendarToken(c),
		CalendarID:  calendarIDOrDefault(input.CalendarID),
	}
	result, err := h.Engine.Book(c.Request.Context(), cred, models.BookingRequest{
		Slot:        models.TimeInterval{Start: input.Start, End: input.End},
		Timezone:    input.Timezone,
		Title:       input.Title,
		Description: input.Description,
		Attendee:    input.AttendeeEmail,
		HolderID:    input.HolderID,
	})
	if err != nil {
		utils.RespondEngineError(c, err)
		return
	}

	h.Logger.Info("slot booked",
		zap.String("eventId", result.EventID),
		zap.Time("start", input.Start),
		zap.Time("end", input.End))
	c.JSON(http.StatusOK, result)
}

type holdInput struct {
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
	HolderID   string    `json:"holderId" binding:"required"`
	CalendarID string    `json:"calendarId"`
}

// PlaceHold claims a short-lived advisory hold on a slot while the caller
// completes a multi-step flow.
func (h *EngineHandler) PlaceHold(c *gin.Context) {
	var input holdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if !input.Start.Before(input.End) {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "slot start must precede slot end")
		return
	}

	slot := models.TimeInterval{Start: input.Start, End: input.End}
	ok, err := h.Holds.Place(c.Request.Context(), calendarIDOrDefault(input.CalendarID), slot, input.HolderID, h.HoldTTL)
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "hold store unavailable", err.Error())
		return
	}
	if !ok {
		utils.JSONError(c, http.StatusConflict, "slot is held by another caller", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"held":      true,
		"expiresIn": int(h.HoldTTL / time.Second),
	})
}

// ReleaseHold drops the caller's hold ahead of its TTL.
func (h *EngineHandler) ReleaseHold(c *gin.Context) {
	var input holdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	slot := models.TimeInterval{Start: input.Start, End: input.End}
	if err := h.Holds.Release(c.Request.Context(), calendarIDOrDefault(input.CalendarID), slot, input.HolderID); err != nil {
		utils.JSONError(c, http.StatusConflict, "failed to release hold", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"held": false})
}

// HealthHandler reports the latest dependency health snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}

// availabilityRequest applies configured defaults and converts the wire
// input into the calculator's request shape.
func (h *EngineHandler) availabilityRequest(input availabilityInput) (models.AvailabilityRequest, error) {
	cfg := config.AppConfig

	duration := input.DurationMinutes
	if duration == 0 {
		duration = cfg.SlotDurationMin
	}
	stride := input.StrideMinutes
	if stride == 0 {
		stride = cfg.SlotStrideMin
	}

	startStr := input.WorkdayStart
	if startStr == "" {
		startStr = cfg.WorkdayStart
	}
	endStr := input.WorkdayEnd
	if endStr == "" {
		endStr = cfg.WorkdayEnd
	}
	start, err := minutesOfDay(startStr)
	if err != nil {
		return models.AvailabilityRequest{}, utils.NewEngineError(utils.CodeInvalidParameters,
			fmt.Sprintf("invalid workdayStart %q", startStr), err)
	}
	end, err := minutesOfDay(endStr)
	if err != nil {
		return models.AvailabilityRequest{}, utils.NewEngineError(utils.CodeInvalidParameters,
			fmt.Sprintf("invalid workdayEnd %q", endStr), err)
	}

	return models.AvailabilityRequest{
		Date:         input.Date,
		Timezone:     input.Timezone,
		SlotDuration: time.Duration(duration) * time.Minute,
		SlotStride:   time.Duration(stride) * time.Minute,
		WorkdayStart: start,
		WorkdayEnd:   end,
	}, nil
}

// minutesOfDay parses "HH:MM" into minutes from midnight.
func minutesOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func calendarIDOrDefault(id string) string {
	if id != "" {
		return id
	}
	return config.AppConfig.CalendarID
}

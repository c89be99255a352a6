package tools

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/mirrorme/mirrorme/internal/scheduling"
	mcpschema "github.com/viant/mcp-protocol/schema"
)

const bookingIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBooking creates the meeting-booking tool. When a scheduling client is
// configured, the confirmation carries the owner's public scheduling link.
func NewBooking(priceUSD float64, scheduler *scheduling.Client) *PaidTool {
	return &PaidTool{
		Name:        "book_meeting",
		Description: "Book a meeting with me",
		PriceUSD:    priceUSD,
		InputSchema: mcpschema.ToolInputSchema{
			Type: "object",
			Properties: mcpschema.ToolInputSchemaProperties{
				"date":          property("string", "Meeting date in YYYY-MM-DD format"),
				"time":          property("string", "Meeting time in HH:MM format (24-hour)"),
				"duration":      property("number", "Meeting duration in minutes"),
				"attendeeName":  property("string", "Name of the attendee"),
				"attendeeEmail": property("string", "Email address of the attendee"),
				"topic":         property("string", "Meeting topic or agenda"),
			},
			Required: []string{"date", "time", "attendeeName", "attendeeEmail"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return bookMeeting(ctx, args, scheduler)
		},
	}
}

func bookMeeting(ctx context.Context, args map[string]interface{}, scheduler *scheduling.Client) (map[string]interface{}, error) {
	date := stringArg(args, "date")
	meetingTime := stringArg(args, "time")
	attendeeName := stringArg(args, "attendeeName")
	attendeeEmail := stringArg(args, "attendeeEmail")
	if date == "" || meetingTime == "" || attendeeName == "" || attendeeEmail == "" {
		return nil, fmt.Errorf("date, time, attendeeName and attendeeEmail are required")
	}
	duration := int(numberArg(args, "duration", 30))
	if duration < 15 || duration > 120 {
		return nil, fmt.Errorf("duration must be between 15 and 120 minutes")
	}
	topic := stringArg(args, "topic")
	if topic == "" {
		topic = "General discussion"
	}
	meetingDateTime, err := time.Parse("2006-01-02T15:04", date+"T"+meetingTime)
	if err != nil {
		return nil, fmt.Errorf("invalid date/time: %w", err)
	}

	bookingID := newBookingID()
	meeting := map[string]interface{}{
		"date":            date,
		"time":            meetingTime,
		"duration":        duration,
		"attendeeName":    attendeeName,
		"attendeeEmail":   attendeeEmail,
		"topic":           topic,
		"status":          "confirmed",
		"meetingDateTime": meetingDateTime.UTC().Format(time.RFC3339),
		"timezone":        "UTC",
	}
	if scheduler.Configured() {
		if owner, err := scheduler.CurrentUser(ctx); err != nil {
			log.Printf("scheduling lookup failed: %v", err)
		} else if owner.SchedulingURL != "" {
			meeting["schedulingUrl"] = owner.SchedulingURL
			if owner.Timezone != "" {
				meeting["timezone"] = owner.Timezone
			}
		}
	}
	return map[string]interface{}{
		"success":   true,
		"bookingId": bookingID,
		"meeting":   meeting,
		"message":   fmt.Sprintf("Meeting booked successfully! Confirmation ID: %s", bookingID),
	}, nil
}

func newBookingID() string {
	suffix := make([]byte, 7)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(bookingIDAlphabet))))
		suffix[i] = bookingIDAlphabet[n.Int64()]
	}
	return fmt.Sprintf("MEET-%d-%s", time.Now().UnixMilli(), suffix)
}

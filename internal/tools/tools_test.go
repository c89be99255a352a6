package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirrorme/mirrorme/internal/scheduling"
	"github.com/mirrorme/mirrorme/internal/store"
)

func TestBookMeeting(t *testing.T) {
	booking := NewBooking(0.01, scheduling.New(""))

	testCases := []struct {
		description string
		args        map[string]interface{}
		hasError    bool
	}{
		{
			description: "valid booking",
			args: map[string]interface{}{
				"date":          "2026-09-01",
				"time":          "14:30",
				"attendeeName":  "Ada",
				"attendeeEmail": "ada@example.com",
			},
		},
		{
			description: "missing attendee email",
			args: map[string]interface{}{
				"date":         "2026-09-01",
				"time":         "14:30",
				"attendeeName": "Ada",
			},
			hasError: true,
		},
		{
			description: "duration out of range",
			args: map[string]interface{}{
				"date":          "2026-09-01",
				"time":          "14:30",
				"duration":      float64(5),
				"attendeeName":  "Ada",
				"attendeeEmail": "ada@example.com",
			},
			hasError: true,
		},
		{
			description: "malformed date",
			args: map[string]interface{}{
				"date":          "September 1st",
				"time":          "14:30",
				"attendeeName":  "Ada",
				"attendeeEmail": "ada@example.com",
			},
			hasError: true,
		},
	}

	for _, tc := range testCases {
		out, err := booking.Execute(context.Background(), tc.args)
		if tc.hasError {
			assert.NotNil(t, err, tc.description)
			continue
		}
		assert.Nil(t, err, tc.description)
		assert.EqualValues(t, true, out["success"], tc.description)
		bookingID, _ := out["bookingId"].(string)
		assert.True(t, strings.HasPrefix(bookingID, "MEET-"), tc.description)
		meeting, _ := out["meeting"].(map[string]interface{})
		assert.EqualValues(t, "confirmed", meeting["status"], tc.description)
		assert.EqualValues(t, 30, meeting["duration"], tc.description)
	}
}

func TestShortenURL(t *testing.T) {
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "links.db"))
	assert.Nil(t, err)
	defer db.Close()

	shortener := NewShortener(0.02, db, "http://localhost:3001")

	out, err := shortener.Execute(context.Background(), map[string]interface{}{
		"url": "https://example.com/some/very/long/path",
	})
	assert.Nil(t, err)
	assert.EqualValues(t, true, out["success"])

	shortURL, _ := out["shortUrl"].(string)
	assert.True(t, strings.HasPrefix(shortURL, "http://localhost:3001/s/"))

	code, _ := out["code"].(string)
	resolved, err := db.ResolveShortLink(context.Background(), code)
	assert.Nil(t, err)
	assert.EqualValues(t, "https://example.com/some/very/long/path", resolved)
}

func TestShortenURLRejectsRelative(t *testing.T) {
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "links.db"))
	assert.Nil(t, err)
	defer db.Close()

	shortener := NewShortener(0.02, db, "http://localhost:3001")
	_, err = shortener.Execute(context.Background(), map[string]interface{}{"url": "not-a-url"})
	assert.NotNil(t, err)
	_, err = shortener.Execute(context.Background(), map[string]interface{}{})
	assert.NotNil(t, err)
}

func TestGeneratePassword(t *testing.T) {
	generator := NewPasswordGenerator(0.01)

	testCases := []struct {
		description string
		args        map[string]interface{}
		expectedLen int
		hasError    bool
	}{
		{
			description: "default length",
			args:        map[string]interface{}{},
			expectedLen: 16,
		},
		{
			description: "explicit length",
			args:        map[string]interface{}{"length": float64(32)},
			expectedLen: 32,
		},
		{
			description: "too short",
			args:        map[string]interface{}{"length": float64(4)},
			hasError:    true,
		},
		{
			description: "too long",
			args:        map[string]interface{}{"length": float64(1000)},
			hasError:    true,
		},
	}

	for _, tc := range testCases {
		out, err := generator.Execute(context.Background(), tc.args)
		if tc.hasError {
			assert.NotNil(t, err, tc.description)
			continue
		}
		assert.Nil(t, err, tc.description)
		password, _ := out["password"].(string)
		assert.EqualValues(t, tc.expectedLen, len(password), tc.description)
	}
}

func TestGeneratePasswordWithoutSymbols(t *testing.T) {
	generator := NewPasswordGenerator(0.01)
	out, err := generator.Execute(context.Background(), map[string]interface{}{
		"length":         float64(64),
		"includeSymbols": false,
	})
	assert.Nil(t, err)
	password, _ := out["password"].(string)
	assert.False(t, strings.ContainsAny(password, passwordSymbols))
}

package sequence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	dates := ScheduleDates(start)

	assert.Len(t, dates, Steps)
	assert.Equal(t, start, dates[1])
	assert.Equal(t, start.Add(3*24*time.Hour), dates[2])
	assert.Equal(t, start.Add(7*24*time.Hour), dates[3])
}

func TestScheduleDatesDeterministic(t *testing.T) {
	start := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, ScheduleDates(start), ScheduleDates(start))
}

func TestQuarter(t *testing.T) {
	cases := []struct {
		month time.Month
		want  int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.June, 2},
		{time.July, 3},
		{time.October, 4},
		{time.December, 4},
	}
	for _, tc := range cases {
		got := Quarter(time.Date(2024, tc.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.want, got, "month %s", tc.month)
	}
}

func TestRenderSubject(t *testing.T) {
	assert.Contains(t, RenderSubject(1, "Acme"), "Acme")
	assert.Contains(t, RenderSubject(1, "Acme"), "eventos corporativos")
	assert.Contains(t, RenderSubject(2, "Acme"), "Seguimiento")
	assert.Contains(t, RenderSubject(3, "Acme"), "Cierro el loop")
}

func TestRenderBodySalutation(t *testing.T) {
	body := RenderBody(1, "Jane", "Acme", time.Now())
	assert.True(t, strings.HasPrefix(body, "Hola Jane,"))
	assert.Contains(t, body, "Acme")

	// Missing contact name falls back to a generic salutation.
	body = RenderBody(1, "", "Acme", time.Now())
	assert.True(t, strings.HasPrefix(body, "Hola equipo,"))
}

func TestRenderBodyQuarterFromStart(t *testing.T) {
	// The quarter label comes from the sequence start instant, so rendering
	// the same step later still produces the same text.
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	body := RenderBody(3, "Jane", "Acme", start)
	assert.Contains(t, body, "Q1")
	assert.Equal(t, body, RenderBody(3, "Jane", "Acme", start))

	assert.Contains(t, RenderBody(3, "Jane", "Acme", time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)), "Q4")
}

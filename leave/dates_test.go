package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/leave"
)

// =============================================================================
// PARSE DATE
// =============================================================================

func TestParseDate_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"03/14/2019", time.Date(2019, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{"12/31/2020", time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{"1/5/2021", time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC)},
		{"02/29/2020", time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC)}, // leap day
	}
	for _, tt := range tests {
		got, err := leave.ParseDate(tt.input)
		require.NoError(t, err, tt.input)
		assert.True(t, tt.want.Equal(got), "input %s: got %v", tt.input, got)
	}
}

func TestParseDate_ValueErrors(t *testing.T) {
	// Non-numeric, empty, or impossible tokens are value errors.
	for _, input := range []string{
		"01/X/2019",
		"01//2019",
		"00/15/2019", // month zero
		"02/30/2019", // impossible calendar date
		"aa/bb/cccc",
	} {
		_, err := leave.ParseDate(input)
		require.Error(t, err, input)
		assert.ErrorIs(t, err, leave.ErrInvalidDate, input)

		var de *leave.DateError
		assert.ErrorAs(t, err, &de, input)
		assert.Equal(t, input, de.Input)
	}
}

func TestParseDate_TooFewTokens(t *testing.T) {
	// Fewer than three tokens is a bounds error, not a value error.
	for _, input := range []string{"01/2019", "012019", "", "01"} {
		_, err := leave.ParseDate(input)
		require.Error(t, err, input)
		assert.ErrorIs(t, err, leave.ErrMissingDateTokens, input)
		assert.NotErrorIs(t, err, leave.ErrInvalidDate, input)
	}
}

// =============================================================================
// PARSE RANGE
// =============================================================================

func TestParseDateRange_Ordered(t *testing.T) {
	start, end, err := leave.ParseDateRange("03/14/2019", "03/19/2019")
	require.NoError(t, err)
	assert.Equal(t, 6, leave.InclusiveDays(start, end))
}

func TestParseDateRange_SingleDay(t *testing.T) {
	start, end, err := leave.ParseDateRange("03/14/2019", "03/14/2019")
	require.NoError(t, err)
	assert.Equal(t, 1, leave.InclusiveDays(start, end))
}

func TestParseDateRange_EndBeforeStart(t *testing.T) {
	_, _, err := leave.ParseDateRange("03/19/2019", "03/14/2019")
	assert.ErrorIs(t, err, leave.ErrEndBeforeStart)
}

func TestParseDateRange_PropagatesParseErrors(t *testing.T) {
	_, _, err := leave.ParseDateRange("bad", "03/14/2019")
	assert.ErrorIs(t, err, leave.ErrMissingDateTokens)

	_, _, err = leave.ParseDateRange("03/14/2019", "03/xx/2019")
	assert.ErrorIs(t, err, leave.ErrInvalidDate)
}

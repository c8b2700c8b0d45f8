package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContestIsRated(t *testing.T) {
	rated := Contest{StartEpochSecond: FirstRatedEpochSecond, RateChange: "All"}
	assert.True(t, rated.IsRated())

	unratedMarker := Contest{StartEpochSecond: FirstRatedEpochSecond, RateChange: UnratedState}
	assert.False(t, unratedMarker.IsRated())

	// Contests before AGC001 are never rated regardless of the marker.
	preHistory := Contest{StartEpochSecond: FirstRatedEpochSecond - 1, RateChange: "All"}
	assert.False(t, preHistory.IsRated())
}

func TestSubmissionResults(t *testing.T) {
	ac := Submission{Result: "AC"}
	assert.True(t, ac.IsAccepted())
	assert.True(t, ac.HasTerminalResult())

	wa := Submission{Result: "WA"}
	assert.False(t, wa.IsAccepted())
	assert.True(t, wa.HasTerminalResult())

	for _, transient := range []string{"WJ", "5/12", "Judging", ""} {
		s := Submission{Result: transient}
		assert.False(t, s.HasTerminalResult(), transient)
	}
}

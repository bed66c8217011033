package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to RegStatus }{
		{RegPending, RegConfirmed},
		{RegPending, RegCancelled},
		{RegPending, RegWaitlisted},
		{RegConfirmed, RegAttended},
		{RegConfirmed, RegCancelled},
		{RegWaitlisted, RegConfirmed},
		{RegWaitlisted, RegCancelled},
	}
	allowedSet := make(map[statusPair]bool, len(allowed))
	for _, tr := range allowed {
		allowedSet[statusPair{tr.from, tr.to}] = true
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be legal", tr.from, tr.to)
	}

	// Every pair not in the table is illegal, including self-transitions and
	// anything out of the terminal states.
	for _, from := range RegStatuses {
		for _, to := range RegStatuses {
			if allowedSet[statusPair{from, to}] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s should be illegal", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, from := range []RegStatus{RegAttended, RegCancelled} {
		for _, to := range RegStatuses {
			assert.False(t, CanTransition(from, to), "%s is terminal", from)
		}
	}
}

func TestParseRegStatus(t *testing.T) {
	for _, s := range RegStatuses {
		got, ok := ParseRegStatus(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseRegStatus("confirmed") // statuses are upper-case
	assert.False(t, ok)
	_, ok = ParseRegStatus("DELETED")
	assert.False(t, ok)
}

func TestStatsAddZeroFilled(t *testing.T) {
	var stats RegistrationStats
	stats.Add(RegConfirmed, 3)
	stats.Add(RegWaitlisted, 2)

	assert.Equal(t, 3, stats.Confirmed)
	assert.Equal(t, 2, stats.Waitlisted)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 0, stats.Attended)
	assert.Equal(t, 0, stats.Cancelled)
	assert.Equal(t, 5, stats.Total)
}

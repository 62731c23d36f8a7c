package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{
			name:   "business hours",
			window: Window{Days: []Weekday{Monday, Friday}, StartHour: 9, EndHour: 17, Timezone: "Asia/Singapore"},
		},
		{
			name:    "no days",
			window:  Window{StartHour: 9, EndHour: 17, Timezone: "UTC"},
			wantErr: true,
		},
		{
			name:    "unknown day",
			window:  Window{Days: []Weekday{"mondayy"}, StartHour: 9, EndHour: 17, Timezone: "UTC"},
			wantErr: true,
		},
		{
			name:    "start after end",
			window:  Window{Days: []Weekday{Monday}, StartHour: 17, EndHour: 9, Timezone: "UTC"},
			wantErr: true,
		},
		{
			name:    "bad timezone",
			window:  Window{Days: []Weekday{Monday}, StartHour: 9, EndHour: 17, Timezone: "Mars/Olympus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPolicyDocumentInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	window := Window{
		Days:      []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday},
		StartHour: 9,
		EndHour:   17,
		Timezone:  "Asia/Singapore",
	}

	location, err := time.LoadLocation("Asia/Singapore")
	require.NoError(t, err)

	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"weekday inside hours", time.Date(2026, time.March, 2, 10, 30, 0, 0, location), true},
		{"weekday before opening", time.Date(2026, time.March, 2, 8, 59, 0, 0, location), false},
		{"weekday at closing hour", time.Date(2026, time.March, 2, 17, 0, 0, 0, location), false},
		{"saturday", time.Date(2026, time.March, 7, 10, 0, 0, 0, location), false},
		{"utc instant converted to window timezone", time.Date(2026, time.March, 2, 2, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inside, err := window.Contains(tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, inside)
		})
	}
}

func TestPolicyMatchesAndSpecificity(t *testing.T) {
	policy := &Policy{
		Name:           "risk-delegations",
		FromPattern:    "*.risk.dbs.example.agent",
		ToPattern:      "report-writer.risk.dbs.example.agent",
		AllowedActions: []string{"generate_report"},
	}

	assert.True(t, policy.Matches("fraud-detector.risk.dbs.example.agent", "report-writer.risk.dbs.example.agent"))
	assert.False(t, policy.Matches("fraud-detector.ops.dbs.example.agent", "report-writer.risk.dbs.example.agent"))
	assert.True(t, policy.AllowsAction("generate_report"))
	assert.False(t, policy.AllowsAction("delete_report"))
	assert.Equal(t, 9, policy.Specificity())
}

func TestPolicyValidatePatterns(t *testing.T) {
	base := func(from, to string) *Policy {
		return &Policy{
			Name:           "risk-delegations",
			FromPattern:    from,
			ToPattern:      to,
			AllowedActions: []string{"generate_report"},
		}
	}

	tests := []struct {
		name    string
		policy  *Policy
		wantErr bool
	}{
		{"wildcard labels", base("*.risk.dbs.example.agent", "report-writer.risk.dbs.example.agent"), false},
		{"bare star", base("*", "*"), false},
		{"missing agent suffix", base("*.risk.dbs.example", "*"), true},
		{"empty pattern", base("", "*"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPolicyDocumentInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

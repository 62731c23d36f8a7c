// Package domain defines the delegation policy entities and decision model.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/MCPTrustFramework/mcpf/internal/validation"
)

// Weekday names accepted in policy windows. Lowercase English names, the
// form used in declarative policy documents.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

var weekdayValues = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// Valid reports whether w names a weekday.
func (w Weekday) Valid() bool {
	_, ok := weekdayValues[w]
	return ok
}

// Window restricts delegation to given weekdays and hours in a fixed
// timezone. Hours form the half-open range [StartHour, EndHour).
type Window struct {
	Days      []Weekday `yaml:"days" json:"days"`
	StartHour int       `yaml:"start_hour" json:"start_hour"`
	EndHour   int       `yaml:"end_hour" json:"end_hour"`
	Timezone  string    `yaml:"timezone" json:"timezone"`
}

// Validate checks the window's structure, including that the timezone
// resolves. Called at policy load time so evaluation never meets a broken
// window.
func (w *Window) Validate() error {
	if len(w.Days) == 0 {
		return ErrPolicyDocumentInvalid
	}
	for _, day := range w.Days {
		if !day.Valid() {
			return ErrPolicyDocumentInvalid
		}
	}
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 1 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return ErrPolicyDocumentInvalid
	}
	if _, err := time.LoadLocation(w.Timezone); err != nil {
		return ErrPolicyDocumentInvalid
	}
	return nil
}

// Contains reports whether t, converted to the window's timezone, falls on
// an allowed weekday within the hour range.
func (w *Window) Contains(t time.Time) (bool, error) {
	location, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return false, ErrPolicyDocumentInvalid
	}
	local := t.In(location)

	dayAllowed := false
	for _, day := range w.Days {
		if weekdayValues[day] == local.Weekday() {
			dayAllowed = true
			break
		}
	}
	if !dayAllowed {
		return false, nil
	}
	return local.Hour() >= w.StartHour && local.Hour() < w.EndHour, nil
}

// DefaultRateWindowSeconds is the fixed-window size applied when a policy
// sets MaxDelegationsPerWindow without an explicit window size.
const DefaultRateWindowSeconds = 3600

// Constraints is the closed set of predicates a policy can attach to a
// delegation. Unknown keys in a policy document are a load error, never a
// silent no-op.
type Constraints struct {
	// MaxDurationSeconds bounds the lifetime of whatever the caller does
	// next. It is returned with the decision, never enforced here.
	MaxDurationSeconds *int64 `yaml:"max_duration_seconds" json:"max_duration_seconds,omitempty"`

	// RequiresApproval gates the decision on a human approver.
	RequiresApproval bool `yaml:"requires_approval" json:"requires_approval"`

	// AllowedWindow restricts when delegation may happen.
	AllowedWindow *Window `yaml:"allowed_window" json:"allowed_window,omitempty"`

	// MaxDelegationsPerWindow caps allowed delegations per fixed window
	// for one (from, to, action) tuple.
	MaxDelegationsPerWindow *int `yaml:"max_delegations_per_window" json:"max_delegations_per_window,omitempty"`

	// WindowSeconds sizes the rate window. Zero means
	// DefaultRateWindowSeconds.
	WindowSeconds int64 `yaml:"window_seconds" json:"window_seconds,omitempty"`
}

// RateWindow returns the rate-limit window size.
func (c *Constraints) RateWindow() time.Duration {
	if c.WindowSeconds > 0 {
		return time.Duration(c.WindowSeconds) * time.Second
	}
	return DefaultRateWindowSeconds * time.Second
}

// Policy authorizes delegations from agents matching FromPattern to agents
// matching ToPattern for the listed actions, subject to Constraints.
type Policy struct {
	ID             uuid.UUID
	Name           string
	FromPattern    string
	ToPattern      string
	AllowedActions []string
	Constraints    Constraints
	Version        int
	CreatedAt      time.Time
}

// AllowsAction reports whether the policy covers the action.
func (p *Policy) AllowsAction(action string) bool {
	for _, allowed := range p.AllowedActions {
		if allowed == action {
			return true
		}
	}
	return false
}

// Matches reports whether the policy applies to the (from, to) name pair.
func (p *Policy) Matches(fromName, toName string) bool {
	return MatchPattern(p.FromPattern, fromName) && MatchPattern(p.ToPattern, toName)
}

// Specificity ranks the policy against competitors matching the same pair.
func (p *Policy) Specificity() int {
	return PatternSpecificity(p.FromPattern) + PatternSpecificity(p.ToPattern)
}

// Validate checks the policy's structure at load time. Stored and
// file-loaded policies pass through the same pattern grammar as the API.
func (p *Policy) Validate() error {
	if p.Name == "" || len(p.AllowedActions) == 0 {
		return ErrPolicyDocumentInvalid
	}
	if !validation.IsPolicyPattern(p.FromPattern) || !validation.IsPolicyPattern(p.ToPattern) {
		return ErrPolicyDocumentInvalid
	}
	if window := p.Constraints.AllowedWindow; window != nil {
		if err := window.Validate(); err != nil {
			return err
		}
	}
	if limit := p.Constraints.MaxDelegationsPerWindow; limit != nil && *limit < 1 {
		return ErrPolicyDocumentInvalid
	}
	if p.Constraints.WindowSeconds < 0 {
		return ErrPolicyDocumentInvalid
	}
	if duration := p.Constraints.MaxDurationSeconds; duration != nil && *duration < 1 {
		return ErrPolicyDocumentInvalid
	}
	return nil
}

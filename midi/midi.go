// Package midi defines the control signal kinds a node parameter can be
// automated with.
package midi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Control identifies an external control signal source.
type Control uint

// Control ranges. Values outside of them, except None, are invalid.
const (
	None         Control = 0
	Continuous0  Control = 64
	Continuous31 Control = Continuous0 + 31
	Control0     Control = 128
	Control127   Control = Control0 + 127
)

// ErrInvalidControl is returned when a control token can't be parsed.
var ErrInvalidControl = errors.New("invalid midi control")

// Continuous returns the n-th continuous control.
func Continuous(n int) Control {
	return Continuous0 + Control(n)
}

// Controller returns the n-th midi controller.
func Controller(n int) Control {
	return Control0 + Control(n)
}

// IsContinuous reports if c is in the continuous range.
func (c Control) IsContinuous() bool {
	return c >= Continuous0 && c <= Continuous31
}

// IsController reports if c is in the controller range.
func (c Control) IsController() bool {
	return c >= Control0 && c <= Control127
}

// Valid reports if c is None or falls into one of the control ranges.
func (c Control) Valid() bool {
	return c == None || c.IsContinuous() || c.IsController()
}

// String returns the token used for persistence.
func (c Control) String() string {
	switch {
	case c == None:
		return "none"
	case c.IsContinuous():
		return fmt.Sprintf("continuous-%d", c-Continuous0)
	case c.IsController():
		return fmt.Sprintf("control-%d", c-Control0)
	}
	return fmt.Sprintf("invalid-%d", uint(c))
}

// ParseControl converts token back into Control.
func ParseControl(token string) (Control, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "none" || token == "" {
		return None, nil
	}
	var (
		base  Control
		limit int
		num   string
	)
	switch {
	case strings.HasPrefix(token, "continuous-"):
		base, limit, num = Continuous0, 31, strings.TrimPrefix(token, "continuous-")
	case strings.HasPrefix(token, "control-"):
		base, limit, num = Control0, 127, strings.TrimPrefix(token, "control-")
	default:
		return None, fmt.Errorf("%w: %q", ErrInvalidControl, token)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 || n > limit {
		return None, fmt.Errorf("%w: %q", ErrInvalidControl, token)
	}
	return base + Control(n), nil
}

package patch

import (
	"errors"
	"strings"
)

var (
	// ErrNoSuchIChannel is returned if input channel doesn't exist.
	ErrNoSuchIChannel = errors.New("no such input channel")
	// ErrNoSuchOChannel is returned if output channel doesn't exist.
	ErrNoSuchOChannel = errors.New("no such output channel")
	// ErrNoSuchConnection is returned if edge to remove doesn't exist.
	ErrNoSuchConnection = errors.New("no such connection")
	// ErrChannelsConnected is returned if joint input already has the edge.
	ErrChannelsConnected = errors.New("channels already connected")
	// ErrChannelInUse is returned if singular input is occupied.
	ErrChannelInUse = errors.New("input channel in use")
	// ErrBadLoopback is returned if edge would close a cycle.
	ErrBadLoopback = errors.New("bad loopback")
	// ErrParentMismatch is returned if nodes don't share the parent.
	ErrParentMismatch = errors.New("parent mismatch")
	// ErrPreparedMismatch is returned if nodes disagree on prepared state or
	// number of contexts.
	ErrPreparedMismatch = errors.New("prepared mismatch")
	// ErrSourceBusy is returned if node cannot be edited while prepared.
	ErrSourceBusy = errors.New("source busy")
	// ErrInvalidProperty is returned if parameter cannot be automated.
	ErrInvalidProperty = errors.New("invalid property")
	// ErrInvalidMidiControl is returned if control signal is out of ranges.
	ErrInvalidMidiControl = errors.New("invalid midi control")
	// ErrInvalidParam is returned if argument is invalid.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrNoSuchModule is returned if referenced node doesn't exist.
	ErrNoSuchModule = errors.New("no such module")
	// ErrChannelExists is returned on duplicate channel registration.
	ErrChannelExists = errors.New("channel exists")
	// ErrNodeInUse is returned if node is removed during an edit.
	ErrNodeInUse = errors.New("node in use")
	// ErrNoSuchClass is returned if class is not registered.
	ErrNoSuchClass = errors.New("no such class")
)

// LinkErrors is a list of errors collected while resolving deferred
// links.
type LinkErrors []error

func (e LinkErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap exposes collected errors to errors.Is and errors.As.
func (e LinkErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error is list is empty.
func (e LinkErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}

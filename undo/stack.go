// Package undo provides nested, named and mergeable groups of reversible
// steps.
package undo

import (
	"errors"
	"fmt"
	"time"

	"pipelined.dev/patch/log"
)

// DefaultMaxSteps is the default depth of undo stack.
const DefaultMaxSteps = 999

// ErrGroupOpen is returned when undo is requested while a group is open.
var ErrGroupOpen = errors.New("undo group is open")

type (
	// Func reverts a single change.
	Func func() error

	// Step is a named reversible change.
	Step struct {
		Name string
		fn   Func
	}

	// Group is an atomic bracket of steps. Steps are kept in the order
	// they are executed on undo: newest first.
	Group struct {
		Name  string
		Stamp time.Time
		steps []Step
	}

	// NotifyFunc is called when group lands on the stack or is undone.
	NotifyFunc func(s *Stack, stepAdded bool)

	// Stack keeps committed groups and the currently open one.
	Stack struct {
		log      log.Logger
		notify   NotifyFunc
		dummy    bool
		maxSteps int

		groups []*Group // oldest first.
		group  *Group
		names  []string // names of nested opens.
		nOpen  int
		ignore int

		mergeRequests int
		mergeNext     bool
		mergeName     string

		dirt int
	}

	// Option provides a way to set options to stack.
	Option func(*Stack)
)

// NewStep returns step which calls fn on undo.
func NewStep(name string, fn Func) Step {
	return Step{Name: name, fn: fn}
}

// Len returns number of steps in group.
func (g *Group) Len() int {
	return len(g.steps)
}

// Steps returns names of steps in execution order.
func (g *Group) Steps() []string {
	names := make([]string, 0, len(g.steps))
	for _, s := range g.steps {
		names = append(names, s.Name)
	}
	return names
}

// WithMaxSteps limits number of groups kept in stack.
func WithMaxSteps(n int) Option {
	return func(s *Stack) {
		s.maxSteps = n
	}
}

// WithNotify sets listener of stack changes.
func WithNotify(fn NotifyFunc) Option {
	return func(s *Stack) {
		s.notify = fn
	}
}

// WithLogger sets logger for integrity warnings.
func WithLogger(l log.Logger) Option {
	return func(s *Stack) {
		s.log = l
	}
}

// New returns empty undo stack.
func New(options ...Option) *Stack {
	s := Stack{
		log:      log.Silent{},
		maxSteps: DefaultMaxSteps,
	}
	for _, option := range options {
		option(&s)
	}
	return &s
}

// Dummy returns a stack which ignores all steps.
func Dummy() *Stack {
	s := New()
	s.dummy = true
	return s
}

// IsDummy returns true for stacks created with Dummy.
func (s *Stack) IsDummy() bool {
	return s.dummy
}

// Open starts a new group. Nested opens are counted and only outermost
// one allocates the group.
func (s *Stack) Open(name string) {
	if s.nOpen == 0 {
		s.group = &Group{Name: name}
	}
	s.nOpen++
	s.names = append(s.names, name)
}

// Close finalizes the group opened by the outermost Open.
func (s *Stack) Close() {
	if s.nOpen == 0 {
		log.Integrity(s.log, "undo close without open")
		return
	}
	s.nOpen--
	s.names = s.names[:len(s.names)-1]
	if s.nOpen > 0 {
		return
	}
	g := s.group
	s.group = nil
	if len(g.steps) == 0 {
		return
	}
	g.Stamp = time.Now()
	if s.mergeNext && len(s.groups) > 0 {
		prev := s.groups[len(s.groups)-1]
		// new steps run first.
		prev.steps = append(g.steps, prev.steps...)
		prev.Stamp = g.Stamp
		if s.mergeName != "" {
			prev.Name = s.mergeName
		}
		if s.dirt == 0 {
			s.ForceDirty()
		}
	} else {
		s.groups = append(s.groups, g)
		s.mergeNext = s.mergeRequests > 0
		s.dirt++
		s.Limit(s.maxSteps)
	}
	if s.notify != nil {
		s.notify(s, true)
	}
}

// Push records a step in open group. Steps pushed while stack is ignored
// are dropped.
func (s *Stack) Push(step Step) {
	if s.dummy || s.ignore > 0 {
		return
	}
	if s.group == nil {
		log.Integrity(s.log, "undo step %q pushed without open group", step.Name)
		return
	}
	if step.Name == "" {
		step.Name = s.names[len(s.names)-1]
	}
	s.group.steps = append([]Step{step}, s.group.steps...)
}

// PushFunc records fn as a step named after the innermost open group.
func (s *Stack) PushFunc(fn Func) {
	s.Push(Step{fn: fn})
}

// PushAddOn records step in open group if it has steps, in the newest
// committed group otherwise. If there is no group the step is dropped.
func (s *Stack) PushAddOn(step Step) {
	if s.dummy || s.ignore > 0 {
		return
	}
	switch {
	case s.group != nil && len(s.group.steps) > 0:
		s.group.steps = append([]Step{step}, s.group.steps...)
	case len(s.groups) > 0:
		g := s.groups[len(s.groups)-1]
		g.steps = append([]Step{step}, g.steps...)
	}
}

// Ignore suppresses recording until matching Unignore.
func (s *Stack) Ignore() {
	s.ignore++
}

// Unignore resumes recording.
func (s *Stack) Unignore() {
	if s.ignore == 0 {
		log.Integrity(s.log, "undo unignore without ignore")
		return
	}
	s.ignore--
}

// Ignored returns true while recording is suppressed.
func (s *Stack) Ignored() bool {
	return s.dummy || s.ignore > 0
}

// Undo pops the newest group and runs its steps newest first. All steps
// are run even if some of them fail. Active merger is kept, next closed
// group merges into the group below.
func (s *Stack) Undo() error {
	if s.nOpen > 0 {
		return ErrGroupOpen
	}
	if len(s.groups) == 0 {
		return nil
	}
	g := s.groups[len(s.groups)-1]
	s.groups = s.groups[:len(s.groups)-1]
	var errs stepErrors
	for _, step := range g.steps {
		if err := step.fn(); err != nil {
			errs = append(errs, fmt.Errorf("undo %q: %w", step.Name, err))
		}
	}
	s.dirt--
	if s.notify != nil {
		s.notify(s, false)
	}
	return errs.ret()
}

// AddMerger requests the next closed group to be merged into previous one
// under provided name. Requests are reference counted.
func (s *Stack) AddMerger(name string) {
	if s.mergeRequests == 0 {
		s.mergeName = name
	}
	s.mergeRequests++
}

// RemoveMerger drops one merge request.
func (s *Stack) RemoveMerger() {
	if s.mergeRequests == 0 {
		log.Integrity(s.log, "undo remove merger without merger")
		return
	}
	s.mergeRequests--
	if s.mergeRequests == 0 {
		s.mergeName = ""
		s.mergeNext = false
	}
}

// Limit drops oldest groups until at most n are kept.
func (s *Stack) Limit(n int) {
	if n < 0 {
		n = 0
	}
	s.maxSteps = n
	if extra := len(s.groups) - n; extra > 0 {
		s.groups = append(s.groups[:0:0], s.groups[extra:]...)
	}
}

// Clear drops all committed groups. Open group is not affected and
// listener is not notified.
func (s *Stack) Clear() {
	s.groups = nil
	s.mergeNext = false
}

// Depth returns number of committed groups.
func (s *Stack) Depth() int {
	return len(s.groups)
}

// Peek returns name of the newest committed group.
func (s *Stack) Peek() (string, bool) {
	if len(s.groups) == 0 {
		return "", false
	}
	return s.groups[len(s.groups)-1].Name, true
}

// Group returns the newest committed group.
func (s *Stack) Group() (*Group, bool) {
	if len(s.groups) == 0 {
		return nil, false
	}
	return s.groups[len(s.groups)-1], true
}

// PeekLastAtom returns the single step of the newest group if it has
// exactly one step and the only open group is still empty. Callers use it
// to coalesce repeated edits.
func (s *Stack) PeekLastAtom() (Step, bool) {
	if s.nOpen != 1 || s.maxSteps <= 1 || len(s.group.steps) > 0 || len(s.groups) == 0 {
		return Step{}, false
	}
	g := s.groups[len(s.groups)-1]
	if len(g.steps) != 1 {
		return Step{}, false
	}
	return g.steps[0], true
}

// IsOpen returns true if a group is open.
func (s *Stack) IsOpen() bool {
	return s.nOpen > 0
}

// Dirty returns true if stack has changes since last clean.
func (s *Stack) Dirty() bool {
	return s.dirt != 0 || (s.group != nil && len(s.group.steps) > 0)
}

// CleanDirty marks current state clean.
func (s *Stack) CleanDirty() {
	s.dirt = 0
}

// ForceDirty marks stack dirty. The stack stays dirty until all present
// groups and one more are undone.
func (s *Stack) ForceDirty() {
	if s.dirt <= 0 {
		s.dirt = len(s.groups) + 1
	}
}

// stepErrors is a list of errors of undone steps.
type stepErrors []error

func (e stepErrors) Error() string {
	return fmt.Sprintf("%d undo steps failed: %v", len(e), []error(e))
}

// Unwrap exposes wrapped errors to errors.Is.
func (e stepErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if there are no errors.
func (e stepErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}

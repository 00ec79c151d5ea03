package mapping

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// State is where a Session stands in the column-mapping flow.
type State string

const (
	AutoDetecting        State = "AUTO_DETECTING"
	AwaitingConfirmation State = "AWAITING_CONFIRMATION"
)

var (
	// ErrWrongState is returned when a Session operation does not apply to its state.
	ErrWrongState = errors.New("mapping session in wrong state")
	// ErrUnknownField is returned when a field name is not a canonical field.
	ErrUnknownField = errors.New("unknown field")
)

// IncompleteMappingError lists the required fields a mapping leaves unset.
type IncompleteMappingError struct {
	Missing []model.Field
}

func (e *IncompleteMappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("mapping incomplete: missing %s", strings.Join(names, ", "))
}

// UnknownHeaderError is returned when a field is assigned a header the file lacks.
type UnknownHeaderError struct {
	Field  model.Field
	Header string
}

func (e *UnknownHeaderError) Error() string {
	return fmt.Sprintf("field %s: header %q not in file", e.Field, e.Header)
}

// Check returns an *IncompleteMappingError when m leaves a required field unset.
func Check(m model.UniversalMapping) error {
	if missing := m.Missing(); len(missing) > 0 {
		return &IncompleteMappingError{Missing: missing}
	}
	return nil
}

// Session drives one file through the mapping fallback. It starts in
// AutoDetecting and moves to AwaitingConfirmation when detection is inconclusive;
// from there each field can be set independently until Confirm succeeds.
// A Session is not safe for concurrent use.
type Session struct {
	state   State
	headers []string
	mapping model.UniversalMapping
}

// NewSession returns a session in AutoDetecting.
func NewSession() *Session {
	return &Session{state: AutoDetecting}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Headers returns the header row the session was opened with.
func (s *Session) Headers() []string { return append([]string(nil), s.headers...) }

// Mapping returns a copy of the working mapping.
func (s *Session) Mapping() model.UniversalMapping { return s.mapping.Clone() }

// Resolve records the detector's verdict. A known adapter id leaves the session in
// AutoDetecting and returns false; model.UnknownAdapter moves it to
// AwaitingConfirmation seeded with Propose(headers) and returns true.
func (s *Session) Resolve(adapterID string, headers []string) (bool, error) {
	if s.state != AutoDetecting {
		return false, fmt.Errorf("resolve: %w", ErrWrongState)
	}
	if adapterID != model.UnknownAdapter {
		return false, nil
	}
	s.headers = append([]string(nil), headers...)
	s.mapping = Propose(headers)
	s.state = AwaitingConfirmation
	return true, nil
}

// Set assigns header to field. An empty header clears the field.
func (s *Session) Set(field model.Field, header string) error {
	if s.state != AwaitingConfirmation {
		return fmt.Errorf("set %s: %w", field, ErrWrongState)
	}
	return s.assign(s.mapping, field, header)
}

// Apply sets several fields at once. If any change fails, none is kept. Changes are
// checked in field order.
func (s *Session) Apply(changes model.UniversalMapping) error {
	if s.state != AwaitingConfirmation {
		return fmt.Errorf("apply: %w", ErrWrongState)
	}
	fields := make([]model.Field, 0, len(changes))
	for f := range changes {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	next := s.mapping.Clone()
	for _, f := range fields {
		if err := s.assign(next, f, changes[f]); err != nil {
			return err
		}
	}
	s.mapping = next
	return nil
}

func (s *Session) assign(m model.UniversalMapping, field model.Field, header string) error {
	if _, ok := model.ParseField(string(field)); !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, field)
	}
	header = strings.TrimSpace(header)
	if header == "" {
		delete(m, field)
		return nil
	}
	actual, ok := s.header(header)
	if !ok {
		return &UnknownHeaderError{Field: field, Header: header}
	}
	m[field] = actual
	return nil
}

// Ready reports whether every required field is set to a header of the file.
func (s *Session) Ready() bool {
	if s.state != AwaitingConfirmation {
		return false
	}
	for _, f := range model.RequiredFields {
		if _, ok := s.header(s.mapping[f]); !ok {
			return false
		}
	}
	return true
}

// Confirm returns the completed mapping, or *IncompleteMappingError while a
// required field is unset.
func (s *Session) Confirm() (model.UniversalMapping, error) {
	if s.state != AwaitingConfirmation {
		return nil, fmt.Errorf("confirm: %w", ErrWrongState)
	}
	if err := Check(s.mapping); err != nil {
		return nil, err
	}
	return s.mapping.Clone(), nil
}

// header finds h among the file's headers, case-insensitively, and returns the
// file's spelling.
func (s *Session) header(h string) (string, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", false
	}
	for _, x := range s.headers {
		if x = strings.TrimSpace(x); strings.EqualFold(x, h) {
			return x, true
		}
	}
	return "", false
}

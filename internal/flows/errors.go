package flows

import (
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"golang.org/x/text/language"
)

// FieldError is a validation message attached to one field of one row.
type FieldError struct {
	Row   int
	Field Field
	Msg   i18n.Msg
}

// Message renders the error in the given language.
func (e FieldError) Message(tag language.Tag) string {
	return e.Msg.In(tag)
}

// ErrorSet holds at most one error per (row, field). Set and Clear only touch
// the addressed entry; the order of the other entries is kept.
type ErrorSet struct {
	entries []FieldError
}

// Set records msg for (row, field), replacing an earlier message in place.
func (s *ErrorSet) Set(row int, field Field, msg i18n.Msg) {
	for i := range s.entries {
		if s.entries[i].Row == row && s.entries[i].Field == field {
			s.entries[i].Msg = msg
			return
		}
	}
	s.entries = append(s.entries, FieldError{Row: row, Field: field, Msg: msg})
}

// Clear removes the entry for (row, field) if there is one.
func (s *ErrorSet) Clear(row int, field Field) {
	for i := range s.entries {
		if s.entries[i].Row == row && s.entries[i].Field == field {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Get returns the entry for (row, field).
func (s *ErrorSet) Get(row int, field Field) (FieldError, bool) {
	for _, e := range s.entries {
		if e.Row == row && e.Field == field {
			return e, true
		}
	}
	return FieldError{}, false
}

// List returns a copy of all entries.
func (s *ErrorSet) List() []FieldError {
	return append([]FieldError(nil), s.entries...)
}

// Len is the number of entries.
func (s *ErrorSet) Len() int {
	return len(s.entries)
}

// Reset drops every entry.
func (s *ErrorSet) Reset() {
	s.entries = nil
}

// Package script models the fixed call script and turns one record
// into an ordered segment plan. Planning is pure: no synthesis, no I/O.
package script

import (
	"strings"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

// PhraseKind separates cacheable script text from record-derived text.
type PhraseKind string

const (
	Static   PhraseKind = "static"
	Variable PhraseKind = "variable"
)

// Phrase is one logical utterance in a plan. Slot names the script
// position it came from, used for cache keys and failure reports.
type Phrase struct {
	Kind PhraseKind
	Slot string
	Text string
}

// Segment pairs a phrase with the silence that follows it.
type Segment struct {
	Phrase          Phrase
	TrailingSilence time.Duration
}

// Record is one row of the call sheet.
type Record struct {
	Index       int
	Name        string
	CompanyName string
	Salary      string
	PhoneNumber string
}

// Validate reports the first missing required field.
func (r Record) Validate() error {
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", r.Name},
		{"company_name", r.CompanyName},
		{"salary", r.Salary},
		{"phone_number", r.PhoneNumber},
	} {
		if isBlank(f.value) {
			return fault.New(fault.Validation, "record %d missing required field %q", r.Index, f.name)
		}
	}
	return nil
}

// Slot is one position in a script: either fixed text or a derivation
// from the record.
type Slot struct {
	ID     string
	Static string
	Derive func(Record) string
}

// Script is a fixed ordered list of slots with a uniform inter-segment
// pause.
type Script struct {
	Name  string
	Pause time.Duration
	Slots []Slot
}

// Plan expands a record against the script into an ordered segment
// plan. Identical inputs always produce identical plans. A blank
// derived value fails with a validation fault naming the slot and
// record; no plan with an empty segment is ever produced.
func Plan(rec Record, s *Script) ([]Segment, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if len(s.Slots) == 0 {
		return nil, fault.New(fault.Assembly, "script %q has no slots", s.Name)
	}

	segments := make([]Segment, 0, len(s.Slots))
	for _, slot := range s.Slots {
		var phrase Phrase
		if slot.Derive != nil {
			text := slot.Derive(rec)
			if isBlank(text) {
				return nil, fault.New(fault.Validation, "record %d produced empty text for slot %q", rec.Index, slot.ID)
			}
			phrase = Phrase{Kind: Variable, Slot: slot.ID, Text: text}
		} else {
			if isBlank(slot.Static) {
				return nil, fault.New(fault.Validation, "slot %q has no static text", slot.ID)
			}
			phrase = Phrase{Kind: Static, Slot: slot.ID, Text: slot.Static}
		}
		segments = append(segments, Segment{Phrase: phrase, TrailingSilence: s.Pause})
	}
	// No pause after the final segment.
	segments[len(segments)-1].TrailingSilence = 0
	return segments, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

package script

import (
	"strings"
	"time"
	"unicode"
)

// DefaultCallScript is the BharatWork recruitment call flow: greeting,
// recipient name, company pitch, salary, callback number, closing.
func DefaultCallScript(pause time.Duration) *Script {
	return &Script{
		Name:  "bharatwork-call",
		Pause: pause,
		Slots: []Slot{
			{ID: "greeting", Static: "Hello"},
			{ID: "name", Derive: func(r Record) string { return strings.TrimSpace(r.Name) }},
			{ID: "intro", Static: "this is a call from BharatWork"},
			{ID: "opportunity", Static: "We have an excellent job opportunity for you"},
			{ID: "company_intro", Static: "The position is with"},
			{ID: "company", Derive: func(r Record) string { return strings.TrimSpace(r.CompanyName) }},
			{ID: "salary_intro", Static: "The offered salary is"},
			{ID: "salary", Derive: func(r Record) string { return FormatSalary(r.Salary) }},
			{ID: "contact_info", Static: "For more details, please contact us at"},
			{ID: "phone", Derive: func(r Record) string { return FormatPhoneForSpeech(r.PhoneNumber) }},
			{ID: "closing", Static: "Thank you for your time"},
		},
	}
}

// FormatSalary renders a salary figure for speech. Plain numbers get
// the currency spelled out; anything already worded passes through.
func FormatSalary(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "Rs")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	digitsOnly := true
	for _, r := range s {
		if !unicode.IsDigit(r) && r != ',' {
			digitsOnly = false
			break
		}
	}
	if !digitsOnly {
		return s
	}
	return strings.ReplaceAll(s, ",", "") + " rupees per month"
}

// FormatPhoneForSpeech spells a phone number digit by digit so the
// synthesized voice does not read it as one large number.
func FormatPhoneForSpeech(raw string) string {
	var digits []string
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits = append(digits, string(r))
		}
	}
	return strings.Join(digits, " ")
}

package script

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

func sampleRecord() Record {
	return Record{
		Index:       0,
		Name:        "Asha Verma",
		CompanyName: "Acme Textiles",
		Salary:      "25000",
		PhoneNumber: "+91 98765 43210",
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	s := DefaultCallScript(300 * time.Millisecond)
	a, err := Plan(sampleRecord(), s)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	b, err := Plan(sampleRecord(), s)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical plans for identical inputs")
	}
}

func TestPlanSegmentOrderAndKinds(t *testing.T) {
	s := DefaultCallScript(300 * time.Millisecond)
	plan, err := Plan(sampleRecord(), s)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 11 {
		t.Fatalf("expected 11 segments, got %d", len(plan))
	}
	wantKinds := []PhraseKind{
		Static, Variable, Static, Static, Static, Variable,
		Static, Variable, Static, Variable, Static,
	}
	for i, k := range wantKinds {
		if plan[i].Phrase.Kind != k {
			t.Fatalf("segment %d: expected kind %s, got %s", i, k, plan[i].Phrase.Kind)
		}
	}
	for i, seg := range plan[:len(plan)-1] {
		if seg.TrailingSilence != 300*time.Millisecond {
			t.Fatalf("segment %d: expected 300ms pause, got %v", i, seg.TrailingSilence)
		}
	}
	if last := plan[len(plan)-1]; last.TrailingSilence != 0 {
		t.Fatalf("expected no pause after final segment, got %v", last.TrailingSilence)
	}
}

func TestPlanFailsOnMissingField(t *testing.T) {
	rec := sampleRecord()
	rec.Index = 1
	rec.Name = "  "
	_, err := Plan(rec, DefaultCallScript(300*time.Millisecond))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if fault.KindOf(err) != fault.Validation {
		t.Fatalf("expected validation fault, got %v", fault.KindOf(err))
	}
	msg := err.Error()
	if !strings.Contains(msg, "record 1") || !strings.Contains(msg, "name") {
		t.Fatalf("expected record index and field in error, got %q", msg)
	}
}

func TestFormatSalary(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"25000", "25000 rupees per month"},
		{"₹25,000", "25000 rupees per month"},
		{"Rs. 18000", "18000 rupees per month"},
		{"25000 rupees with benefits", "25000 rupees with benefits"},
	}
	for _, tc := range cases {
		if got := FormatSalary(tc.in); got != tc.want {
			t.Fatalf("FormatSalary(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPhoneForSpeech(t *testing.T) {
	got := FormatPhoneForSpeech("+91 98765-43210")
	want := "9 1 9 8 7 6 5 4 3 2 1 0"
	if got != want {
		t.Fatalf("FormatPhoneForSpeech = %q, want %q", got, want)
	}
}

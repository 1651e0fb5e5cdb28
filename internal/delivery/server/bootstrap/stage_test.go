package bootstrap

import (
	"fmt"
	"testing"

	"restoree/internal/shared/logging"
)

func TestRunStagesFailsOnRequired(t *testing.T) {
	degraded := NewDegradedComponents()
	stages := []Stage{
		{Name: "ok", Required: true, Init: func() error { return nil }},
		{Name: "fail", Required: true, Init: func() error { return fmt.Errorf("boom") }},
		{Name: "unreached", Required: true, Init: func() error {
			t.Fatal("should not be reached")
			return nil
		}},
	}

	if err := RunStages(stages, degraded, logging.Nop()); err == nil {
		t.Fatal("expected error from required stage")
	}
	if !degraded.IsEmpty() {
		t.Fatal("no optional stages should have been recorded")
	}
}

func TestRunStagesRecordsOptionalFailures(t *testing.T) {
	degraded := NewDegradedComponents()
	var reached bool
	stages := []Stage{
		{Name: "storage", Required: false, Init: func() error { return fmt.Errorf("dial tcp: refused") }},
		{Name: "janitor", Required: false, Init: func() error { return fmt.Errorf("bad schedule") }},
		{Name: "service", Required: true, Init: func() error { reached = true; return nil }},
	}

	if err := RunStages(stages, degraded, logging.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reached {
		t.Fatal("required stage was not reached")
	}
	if got := degraded.String(); got != "janitor: bad schedule; storage: dial tcp: refused" {
		t.Fatalf("degraded = %q", got)
	}
}

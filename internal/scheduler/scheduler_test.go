package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAddInvalidSpec(t *testing.T) {
	s := New(nil)

	if err := s.Add("not a cron spec", func() {}); err == nil {
		t.Error("expected error for garbage spec")
	}
	if err := s.Add("61 * * * *", func() {}); err == nil {
		t.Error("expected error for out-of-range minute")
	}
}

func TestAddNilJob(t *testing.T) {
	s := New(nil)
	if err := s.Add("0 6 * * *", nil); err == nil {
		t.Fatal("expected error for nil job")
	}
}

func TestAddValidSpecs(t *testing.T) {
	s := New(nil)

	for _, spec := range []string{"0 6 * * *", "*/15 * * * *", "@daily", "@every 12h"} {
		if err := s.Add(spec, func() {}); err != nil {
			t.Errorf("Add(%q) returned error: %v", spec, err)
		}
	}
}

func TestJobRuns(t *testing.T) {
	s := New(nil)

	var runs int64
	if err := s.Add("@every 10ms", func() { atomic.AddInt64(&runs, 1) }); err != nil {
		t.Fatalf("add job: %v", err)
	}

	s.Start()
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	if atomic.LoadInt64(&runs) == 0 {
		t.Error("job never ran")
	}
}

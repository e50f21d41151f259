package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := FromZap(zap.New(core))

	child := base.With(String("request_id", "r1"))
	child.Warn("slow", Int("ms", 1200))
	base.Error("failed", Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	first := entries[0].ContextMap()
	if first["request_id"] != "r1" || first["ms"] != int64(1200) {
		t.Errorf("child entry fields = %v", first)
	}
	if _, leaked := entries[1].ContextMap()["request_id"]; leaked {
		t.Error("With leaked fields into the parent logger")
	}
	if entries[1].ContextMap()["error"] != "boom" {
		t.Errorf("error field = %v", entries[1].ContextMap()["error"])
	}
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	l := New("not-a-level", false)
	defer func() { _ = l.Sync() }()
	l.Info("still logs")
}

package ui

import (
	"testing"
	"time"
)

func TestLoop_DefaultInterval(t *testing.T) {
	l := NewLoop(0)
	if l.Interval() != time.Second/30 {
		t.Errorf("Interval() = %v, want %v", l.Interval(), time.Second/30)
	}
	if l.Running() {
		t.Error("new loop should not be running")
	}
	if l.Next() != nil {
		t.Error("Next() on a stopped loop should be nil")
	}
}

func TestLoop_StartAcceptCancel(t *testing.T) {
	l := NewLoop(time.Millisecond)

	cmd := l.Start()
	if cmd == nil {
		t.Fatal("Start() returned nil")
	}
	msg, ok := cmd().(TickMsg)
	if !ok {
		t.Fatalf("tick command produced %T", cmd())
	}
	if !l.Accept(msg) {
		t.Error("tick from the current run should be accepted")
	}
	if l.Next() == nil {
		t.Error("Next() should schedule while running")
	}

	l.Cancel()
	if l.Running() {
		t.Error("loop still running after Cancel")
	}
	if l.Accept(msg) {
		t.Error("tick accepted after Cancel")
	}
	if l.Next() != nil {
		t.Error("Next() should be nil after Cancel")
	}

	// A restarted loop still rejects ticks scheduled by the earlier run.
	l.Start()
	if l.Accept(msg) {
		t.Error("stale tick accepted by a new run")
	}
}

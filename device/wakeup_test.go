package device

import (
	"sync"
	"testing"
)

func TestRemoteWakeupCounter(t *testing.T) {
	var w remoteWakeup

	if w.active() {
		t.Fatal("active() = true with no registrations")
	}
	w.register()
	w.register()
	if !w.active() {
		t.Fatal("active() = false after register")
	}
	w.unregister()
	if !w.active() {
		t.Fatal("active() = false with one registration left")
	}
	w.unregister()
	if w.active() {
		t.Fatal("active() = true after all registrations removed")
	}
}

func TestRemoteWakeupPendGating(t *testing.T) {
	var w remoteWakeup

	// No capability registered.
	if w.pend(true) {
		t.Fatal("pend() = true without registered capability")
	}

	w.register()

	// Host has not enabled the feature.
	if w.pend(false) {
		t.Fatal("pend() = true with feature disabled")
	}

	if !w.pend(true) {
		t.Fatal("pend() = false with capability and feature enabled")
	}
	// Already pending.
	if w.pend(true) {
		t.Fatal("second pend() = true while wakeup pending")
	}

	if !w.resumed() {
		t.Fatal("resumed() = false with wakeup pending")
	}
	if w.resumed() {
		t.Fatal("second resumed() = true with nothing pending")
	}

	// A new suspend cycle can pend again.
	if !w.pend(true) {
		t.Fatal("pend() = false after previous wakeup completed")
	}
}

func TestRemoteWakeupPendSingleWinner(t *testing.T) {
	var w remoteWakeup
	w.register()

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- w.pend(true)
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("concurrent pend() granted %d wakeups, want 1", won)
	}
}

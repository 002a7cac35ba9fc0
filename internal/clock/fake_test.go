package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))

	fired := false
	c.AfterFunc(2*time.Second, func() { fired = true })

	c.Advance(time.Second)
	if fired {
		t.Fatal("fired before deadline")
	}
	c.Advance(time.Second)
	if !fired {
		t.Fatal("did not fire at deadline")
	}
}

func TestFakeStopPreventsFiring(t *testing.T) {
	c := Fake(time.Unix(0, 0))

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop should report the timer was pending")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report not pending")
	}

	c.Advance(5 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if c.PendingTimers() != 0 {
		t.Errorf("expected 0 pending timers, got %d", c.PendingTimers())
	}
}

func TestFakeCallbackMaySchedule(t *testing.T) {
	c := Fake(time.Unix(0, 0))

	var order []int
	c.AfterFunc(time.Second, func() {
		order = append(order, 1)
		c.AfterFunc(time.Second, func() { order = append(order, 2) })
	})

	// Both deadlines fall inside the single Advance window.
	c.Advance(3 * time.Second)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected chained callbacks [1 2], got %v", order)
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := Fake(time.Unix(0, 0))

	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "late") })
	c.AfterFunc(1*time.Second, func() { order = append(order, "early") })

	c.Advance(5 * time.Second)

	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Errorf("expected [early late], got %v", order)
	}
}

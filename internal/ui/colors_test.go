package ui

import "testing"

func TestPaint(t *testing.T) {
	defer func(p bool) { Plain = p }(Plain)

	Plain = false
	if got := Success("ok"); got != ColorGreen+"ok"+ColorReset {
		t.Errorf("Unexpected styled text %q", got)
	}

	Plain = true
	if got := Error("bad"); got != "bad" {
		t.Errorf("Expected plain text, got %q", got)
	}
}

package config

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("SOCCERBOT_TEST_KEY", "")
	if got := String("SOCCERBOT_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("String unset: got %q, want fallback", got)
	}

	t.Setenv("SOCCERBOT_TEST_KEY", "value")
	if got := String("SOCCERBOT_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("String set: got %q, want value", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("SOCCERBOT_TEST_INT", "42")
	if got := Int("SOCCERBOT_TEST_INT", 7); got != 42 {
		t.Errorf("Int: got %d, want 42", got)
	}

	t.Setenv("SOCCERBOT_TEST_INT", "forty-two")
	if got := Int("SOCCERBOT_TEST_INT", 7); got != 7 {
		t.Errorf("Int unparsable: got %d, want 7", got)
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("SOCCERBOT_TEST_DUR", "250ms")
	if got := Duration("SOCCERBOT_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("Duration: got %v, want 250ms", got)
	}

	t.Setenv("SOCCERBOT_TEST_DUR", "soon")
	if got := Duration("SOCCERBOT_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("Duration unparsable: got %v, want 1s", got)
	}
}

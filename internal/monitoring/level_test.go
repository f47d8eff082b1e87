package monitoring

import "testing"

func TestLogLevelGating(t *testing.T) {
	original := Logf
	originalLevel := current
	defer func() {
		Logf = original
		current = originalLevel
	}()

	var calls int
	SetLogger(func(string, ...interface{}) { calls++ })

	SetLevel(LevelWarning)
	Log(LevelDebug, "dropped ROI")
	Log(LevelInfo, "dropped ROI")
	if calls != 0 {
		t.Fatalf("expected no calls below threshold, got %d", calls)
	}

	Log(LevelWarning, "masked segment")
	Log(LevelError, "fatal")
	if calls != 2 {
		t.Fatalf("expected 2 calls at/above threshold, got %d", calls)
	}
}

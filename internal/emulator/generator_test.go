package emulator

import (
	"testing"

	"pulse-monitor/internal/protocol"
)

func TestGenerator_FramesDecode(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	sawValid := false
	sawFingerOff := false

	for i := 0; i < 200; i++ {
		r, err := protocol.ParseLine(gen.NextFrame())
		if err != nil {
			t.Fatalf("Frame %d failed to decode: %v", i, err)
		}

		if r.HRValid {
			sawValid = true
			if r.HR == nil {
				t.Fatalf("Frame %d: HR_VALID without HR", i)
			}
			if *r.HR < 40 || *r.HR > 200 {
				t.Errorf("Frame %d: HR %d outside plausible range", i, *r.HR)
			}
			if r.SpO2 == nil || *r.SpO2 > 100 {
				t.Errorf("Frame %d: bad SpO2 %v", i, r.SpO2)
			}
		} else {
			sawFingerOff = true
			if r.Status != "NO_FINGER" {
				t.Errorf("Frame %d: invalid frame without NO_FINGER status, got %q", i, r.Status)
			}
		}

		if r.Timestamp == nil {
			t.Errorf("Frame %d: missing timestamp", i)
		}
	}

	if !sawValid {
		t.Errorf("Expected valid readings in 200 frames")
	}
	if !sawFingerOff {
		t.Errorf("Expected NO_FINGER episodes in 200 frames")
	}
}

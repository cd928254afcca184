package discovery

import (
	"context"
	"testing"
	"time"
)

// countingScanner считает обращения к нижележащему сканеру
type countingScanner struct {
	calls   int
	devices []Device
}

func (s *countingScanner) Scan(ctx context.Context) ([]Device, error) {
	s.calls++
	return s.devices, nil
}

func TestStaticScanner(t *testing.T) {
	s := NewStaticScanner([]Device{
		{ID: "127.0.0.1:9100", Name: "ESP32_HR_1"},
		{ID: "127.0.0.1:9101", Name: "ESP32_HR_2"},
	})

	devices, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}
	if devices[0].Name != "ESP32_HR_1" {
		t.Errorf("Unexpected device name: %s", devices[0].Name)
	}
}

func TestCachedScanner_SingleUnderlyingScan(t *testing.T) {
	inner := &countingScanner{devices: []Device{{ID: "a", Name: "A"}}}
	s := NewCachedScanner(inner, time.Minute)

	for i := 0; i < 5; i++ {
		devices, err := s.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(devices) != 1 {
			t.Fatalf("Expected 1 device, got %d", len(devices))
		}
	}

	if inner.calls != 1 {
		t.Errorf("Expected 1 underlying scan, got %d", inner.calls)
	}
}

package device

import (
	"math"
	"testing"
	"time"
)

func TestMetricsEngine_UnsetBelowTwoSamples(t *testing.T) {
	e := NewMetricsEngine()

	m := e.Snapshot()
	if m.BPM != nil || m.IPM != nil || m.HRStd != nil || m.RMSSD != nil || m.AvgSpO2 != nil {
		t.Errorf("Expected all metrics unset with empty history")
	}

	e.OfferHR(60, time.Now())
	m = e.Snapshot()
	if m.BPM != nil {
		t.Errorf("Expected metrics unset with a single sample, got bpm=%v", *m.BPM)
	}
}

func TestMetricsEngine_SteadyHeartRate(t *testing.T) {
	e := NewMetricsEngine()
	now := time.Now()

	for i := 0; i < 4; i++ {
		if !e.OfferHR(60, now.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("Expected sample %d to be admitted", i)
		}
	}

	m := e.Snapshot()
	if m.BPM == nil || *m.BPM != 60 {
		t.Errorf("Expected mean 60, got %v", m.BPM)
	}
	if m.IPM == nil || *m.IPM != *m.BPM {
		t.Errorf("Expected ipm to alias bpm")
	}
	if m.HRStd == nil || *m.HRStd != 0 {
		t.Errorf("Expected std 0, got %v", m.HRStd)
	}
	if m.RMSSD == nil || *m.RMSSD != 0 {
		t.Errorf("Expected rmssd 0, got %v", m.RMSSD)
	}
}

func TestMetricsEngine_DerivedValues(t *testing.T) {
	e := NewMetricsEngine()
	now := time.Now()

	for i, v := range []int{60, 62, 64} {
		e.OfferHR(v, now.Add(time.Duration(i)*time.Second))
	}

	m := e.Snapshot()
	if m.BPM == nil || *m.BPM != 62 {
		t.Errorf("Expected mean 62, got %v", m.BPM)
	}

	// Популяционное СКО для [60,62,64]: sqrt(8/3)
	wantStd := math.Sqrt(8.0 / 3.0)
	if m.HRStd == nil || math.Abs(*m.HRStd-wantStd) > 1e-9 {
		t.Errorf("Expected std %.6f, got %v", wantStd, m.HRStd)
	}

	// Последовательные разности [2,2]: rmssd = 2
	if m.RMSSD == nil || math.Abs(*m.RMSSD-2) > 1e-9 {
		t.Errorf("Expected rmssd 2, got %v", m.RMSSD)
	}
}

func TestMetricsEngine_AdmissionBounds(t *testing.T) {
	e := NewMetricsEngine()
	now := time.Now()

	for _, v := range []int{39, 201, 0, -5, 1000} {
		if e.OfferHR(v, now) {
			t.Errorf("Expected %d to be rejected", v)
		}
	}
	if e.Len() != 0 {
		t.Errorf("Expected empty history, got %d", e.Len())
	}

	for _, v := range []int{40, 200, 72} {
		if !e.OfferHR(v, now) {
			t.Errorf("Expected %d to be admitted", v)
		}
	}
	if e.Len() != 3 {
		t.Errorf("Expected 3 admitted samples, got %d", e.Len())
	}

	if e.OfferSpO2(69) {
		t.Errorf("Expected SpO2 69 to be rejected")
	}
	if e.OfferSpO2(101) {
		t.Errorf("Expected SpO2 101 to be rejected")
	}
	if !e.OfferSpO2(70) || !e.OfferSpO2(100) {
		t.Errorf("Expected boundary SpO2 values to be admitted")
	}
}

func TestMetricsEngine_WindowEviction(t *testing.T) {
	e := NewMetricsEngine()
	now := time.Now()

	// Одно "старое" значение, затем окно добивается до переполнения
	e.OfferHR(40, now)
	for i := 0; i < HistoryCapacity; i++ {
		e.OfferHR(100, now.Add(time.Duration(i)*time.Second))
	}

	if e.Len() != HistoryCapacity {
		t.Errorf("Expected window capped at %d, got %d", HistoryCapacity, e.Len())
	}

	// Старое значение 40 вытеснено, осталась ровная сотня
	m := e.Snapshot()
	if m.BPM == nil || *m.BPM != 100 {
		t.Errorf("Expected oldest sample evicted, mean=%v", m.BPM)
	}
	if m.HRStd == nil || *m.HRStd != 0 {
		t.Errorf("Expected std 0 after eviction, got %v", m.HRStd)
	}
}

func TestMetricsEngine_SpO2Passthrough(t *testing.T) {
	e := NewMetricsEngine()
	now := time.Now()

	e.OfferSpO2(97)
	e.OfferHR(70, now)
	if m := e.Snapshot(); m.AvgSpO2 != nil {
		t.Errorf("Expected SpO2 passthrough unset below two HR samples")
	}

	e.OfferHR(72, now.Add(time.Second))
	m := e.Snapshot()
	if m.AvgSpO2 == nil || *m.AvgSpO2 != 97 {
		t.Errorf("Expected avg_spo2 97, got %v", m.AvgSpO2)
	}

	e.OfferSpO2(95)
	e.OfferHR(71, now.Add(2*time.Second))
	if m := e.Snapshot(); m.AvgSpO2 == nil || *m.AvgSpO2 != 95 {
		t.Errorf("Expected latest admitted SpO2 95, got %v", m.AvgSpO2)
	}
}

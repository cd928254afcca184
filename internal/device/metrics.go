package device

import (
	"math"
	"time"
)

// MetricsEngine пересчитывает производные метрики по скользящему окну
// принятых значений пульса. Не потокобезопасен: владеет им сессия
// устройства.
type MetricsEngine struct {
	history    []int
	timestamps []time.Time
	cap        int

	latestSpO2 *int
	metrics    Metrics
}

// NewMetricsEngine создает движок с окном HistoryCapacity.
func NewMetricsEngine() *MetricsEngine {
	return &MetricsEngine{
		history:    make([]int, 0, HistoryCapacity),
		timestamps: make([]time.Time, 0, HistoryCapacity),
		cap:        HistoryCapacity,
	}
}

// OfferHR предлагает значение пульса. Значения вне [HRMin, HRMax]
// отбрасываются (это политика фильтрации, не ошибка). Возвращает, было ли
// значение принято в окно; после приема метрики пересчитываются.
func (e *MetricsEngine) OfferHR(v int, ts time.Time) bool {
	if v < HRMin || v > HRMax {
		return false
	}

	e.history = append(e.history, v)
	e.timestamps = append(e.timestamps, ts)
	if len(e.history) > e.cap {
		e.history = e.history[1:]
		e.timestamps = e.timestamps[1:]
	}

	e.recompute()
	return true
}

// OfferSpO2 предлагает валидное значение SpO2 для сквозной метрики.
// Значения вне [SpO2Min, SpO2Max] отбрасываются.
func (e *MetricsEngine) OfferSpO2(v int) bool {
	if v < SpO2Min || v > SpO2Max {
		return false
	}
	e.latestSpO2 = &v
	return true
}

// Len возвращает число значений в окне истории.
func (e *MetricsEngine) Len() int {
	return len(e.history)
}

// Snapshot возвращает копию текущих метрик.
func (e *MetricsEngine) Snapshot() Metrics {
	m := Metrics{}
	m.BPM = cloneFloat(e.metrics.BPM)
	m.IPM = cloneFloat(e.metrics.IPM)
	m.HRStd = cloneFloat(e.metrics.HRStd)
	m.RMSSD = cloneFloat(e.metrics.RMSSD)
	if e.metrics.AvgSpO2 != nil {
		v := *e.metrics.AvgSpO2
		m.AvgSpO2 = &v
	}
	return m
}

// recompute пересчитывает метрики. Меньше двух значений в окне — метрики
// остаются невычисленными, включая сквозной SpO2.
func (e *MetricsEngine) recompute() {
	n := len(e.history)
	if n < 2 {
		return
	}

	sum := 0
	for _, v := range e.history {
		sum += v
	}
	meanHR := float64(sum) / float64(n)

	var variance float64
	for _, v := range e.history {
		d := float64(v) - meanHR
		variance += d * d
	}
	variance /= float64(n)
	std := math.Sqrt(variance)

	var diffSquares float64
	for i := 1; i < n; i++ {
		d := float64(e.history[i] - e.history[i-1])
		diffSquares += d * d
	}
	rmssd := math.Sqrt(diffSquares / float64(n-1))

	ipm := meanHR
	e.metrics.BPM = &meanHR
	e.metrics.IPM = &ipm
	e.metrics.HRStd = &std
	e.metrics.RMSSD = &rmssd
	if e.latestSpO2 != nil {
		v := *e.latestSpO2
		e.metrics.AvgSpO2 = &v
	}
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

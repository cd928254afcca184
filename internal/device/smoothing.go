package device

import "sort"

// SmoothingPolicy определяет, как фильтр сводит буфер к одному значению.
type SmoothingPolicy int

const (
	// PolicyMedian — медиана при заполненном буфере, среднее при 1-2
	// значениях. Пульс подвержен коротким выбросам, медиана их режет.
	PolicyMedian SmoothingPolicy = iota
	// PolicyMean — усеченное среднее при заполненном буфере, последнее
	// сырое значение при 1-2. SpO2 стабилен, усреднения достаточно.
	PolicyMean
)

// SmoothingFilter хранит последние принятые сырые значения одной метрики
// и выдает сглаженное значение для отображения. Не потокобезопасен:
// владеет им сессия устройства.
type SmoothingFilter struct {
	policy SmoothingPolicy
	buf    []int
	cap    int
}

// NewSmoothingFilter создает фильтр с емкостью SmoothingCapacity.
func NewSmoothingFilter(policy SmoothingPolicy) *SmoothingFilter {
	return &SmoothingFilter{
		policy: policy,
		buf:    make([]int, 0, SmoothingCapacity),
		cap:    SmoothingCapacity,
	}
}

// Offer добавляет сырое значение, вытесняя самое старое при переполнении.
func (f *SmoothingFilter) Offer(v int) {
	f.buf = append(f.buf, v)
	if len(f.buf) > f.cap {
		f.buf = f.buf[1:]
	}
}

// Current возвращает сглаженное значение; false — буфер пуст.
func (f *SmoothingFilter) Current() (int, bool) {
	n := len(f.buf)
	if n == 0 {
		return 0, false
	}

	switch f.policy {
	case PolicyMedian:
		if n >= 3 {
			return median(f.buf), true
		}
		return mean(f.buf), true
	default:
		if n >= 3 {
			return mean(f.buf), true
		}
		return f.buf[n-1], true
	}
}

// Len возвращает текущее число значений в буфере.
func (f *SmoothingFilter) Len() int {
	return len(f.buf)
}

// Reset очищает буфер.
func (f *SmoothingFilter) Reset() {
	f.buf = f.buf[:0]
}

func mean(vals []int) int {
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return sum / len(vals)
}

// median при четном размере усредняет два средних значения с усечением.
func median(vals []int) int {
	sorted := make([]int, len(vals))
	copy(sorted, vals)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

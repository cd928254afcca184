package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "pulsemon_"

var (
	registerOnce sync.Once

	framesReceived  *prometheus.CounterVec
	decodeErrors    *prometheus.CounterVec
	samplesRejected *prometheus.CounterVec
	deviceConnected *prometheus.GaugeVec
)

// Init регистрирует метрики конвейера приема. Повторные вызовы безопасны.
func Init() {
	registerOnce.Do(func() {
		framesReceived = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "frames_received_total",
				Help: "Total decoded frames by device",
			},
			[]string{"device"},
		)
		decodeErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decode_errors_total",
				Help: "Total dropped undecodable frames by device",
			},
			[]string{"device"},
		)
		samplesRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "samples_rejected_total",
				Help: "Total samples outside physiological bounds by device and metric",
			},
			[]string{"device", "metric"},
		)
		deviceConnected = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "device_connected",
				Help: "Whether the device transport is currently established",
			},
			[]string{"device"},
		)

		prometheus.MustRegister(
			framesReceived,
			decodeErrors,
			samplesRejected,
			deviceConnected,
		)
	})
}

func IncFramesReceived(device string) {
	if framesReceived != nil {
		framesReceived.WithLabelValues(device).Inc()
	}
}

func IncDecodeErrors(device string) {
	if decodeErrors != nil {
		decodeErrors.WithLabelValues(device).Inc()
	}
}

func IncSamplesRejected(device, metric string) {
	if samplesRejected != nil {
		samplesRejected.WithLabelValues(device, metric).Inc()
	}
}

func SetDeviceConnected(device string, connected bool) {
	if deviceConnected == nil {
		return
	}
	if connected {
		deviceConnected.WithLabelValues(device).Set(1)
	} else {
		deviceConnected.WithLabelValues(device).Set(0)
	}
}

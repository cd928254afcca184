package device

import (
	"time"

	"pulse-monitor/internal/protocol"
)

// ConnectionStatus представляет состояние подключения устройства
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusReceiving    ConnectionStatus = "RECEIVING"
	StatusError        ConnectionStatus = "ERROR"
)

// Физиологические границы допуска сырых значений.
const (
	HRMin   = 40
	HRMax   = 200
	SpO2Min = 70
	SpO2Max = 100
)

// Емкости окон.
const (
	// HistoryCapacity — примерно 5 минут при 1 Гц.
	HistoryCapacity = 300
	// SmoothingCapacity — последние сырые значения для сглаживания.
	SmoothingCapacity = 5
)

// Metrics содержит производные метрики по окну истории пульса.
// nil-поле означает "еще не вычислено", а не ноль.
type Metrics struct {
	BPM     *float64 `json:"bpm,omitempty"`
	IPM     *float64 `json:"ipm,omitempty"` // точный алиас BPM, см. DESIGN.md
	HRStd   *float64 `json:"hrstd,omitempty"`
	RMSSD   *float64 `json:"rmssd,omitempty"`
	AvgSpO2 *int     `json:"avg_spo2,omitempty"`
}

// Snapshot — неизменяемая копия состояния одного устройства,
// выдаваемая потребителям.
type Snapshot struct {
	ID           int               `json:"id"`
	Name         string            `json:"name"`
	Target       string            `json:"target,omitempty"`
	Status       ConnectionStatus  `json:"status"`
	Connected    bool              `json:"connected"`
	Latest       *protocol.Reading `json:"latest,omitempty"`
	SmoothedHR   *int              `json:"smoothed_hr,omitempty"`
	SmoothedSpO2 *int              `json:"smoothed_spo2,omitempty"`
	Metrics      Metrics           `json:"metrics"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

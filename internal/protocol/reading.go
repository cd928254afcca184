package protocol

import (
	"time"
)

// Reading представляет одно декодированное показание устройства.
// Отсутствующие в кадре поля остаются nil: "не видели" и "ноль" — разные
// состояния.
type Reading struct {
	HR        *int      `json:"hr,omitempty"`
	HRValid   bool      `json:"hr_valid"`
	SpO2      *int      `json:"spo2,omitempty"`
	SpO2Valid bool      `json:"spo2_valid"`
	IRAvg     *int      `json:"ir_avg,omitempty"`
	IRRange   *int      `json:"ir_range,omitempty"`
	Timestamp *int64    `json:"timestamp,omitempty"` // тики устройства
	LocalTime time.Time `json:"local_time"`
	Status    string    `json:"status"`
}

// DefaultStatus используется, когда кадр не содержит токена STATUS.
const DefaultStatus = "receiving"

// Clone возвращает глубокую копию показания.
func (r *Reading) Clone() *Reading {
	if r == nil {
		return nil
	}
	c := *r
	c.HR = cloneInt(r.HR)
	c.SpO2 = cloneInt(r.SpO2)
	c.IRAvg = cloneInt(r.IRAvg)
	c.IRRange = cloneInt(r.IRRange)
	if r.Timestamp != nil {
		v := *r.Timestamp
		c.Timestamp = &v
	}
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package protocol

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyFrame возвращается для строки, в которой после очистки не
// осталось декодируемого содержимого.
var ErrEmptyFrame = errors.New("protocol: empty frame")

// Распознаваемые ключи кадра.
const (
	keyHR        = "HR"
	keyHRValid   = "HR_VALID"
	keySpO2      = "SPO2"
	keySpO2Valid = "SPO2_VALID"
	keyIRAvg     = "IR_AVG"
	keyIRRange   = "IR_RANGE"
	keyTimestamp = "TIMESTAMP"
	keyStatus    = "STATUS"
)

// ParseLine декодирует одну строку протокола в Reading.
// Строка — список токенов KEY:VALUE через запятую. Неизвестные ключи
// игнорируются, токены без двоеточия и нечисловые значения числовых ключей
// пропускаются, не роняя разбор всей строки. Некорректные UTF-8
// последовательности вырезаются. Строка без единого валидного токена дает
// пустой Reading; полностью пустая строка — ErrEmptyFrame.
func ParseLine(line string) (*Reading, error) {
	line = strings.TrimSpace(strings.ToValidUTF8(line, ""))
	if line == "" {
		return nil, ErrEmptyFrame
	}

	r := &Reading{
		LocalTime: time.Now(),
		Status:    DefaultStatus,
	}

	for _, part := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case keyHR:
			r.HR = parseInt(value)
		case keyHRValid:
			r.HRValid = parseFlag(value)
		case keySpO2:
			r.SpO2 = parseInt(value)
		case keySpO2Valid:
			r.SpO2Valid = parseFlag(value)
		case keyIRAvg:
			r.IRAvg = parseInt(value)
		case keyIRRange:
			r.IRRange = parseInt(value)
		case keyTimestamp:
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				r.Timestamp = &v
			}
		case keyStatus:
			if value != "" {
				r.Status = value
			}
		}
	}

	return r, nil
}

func parseInt(value string) *int {
	v, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &v
}

func parseFlag(value string) bool {
	v, err := strconv.Atoi(value)
	return err == nil && v != 0
}

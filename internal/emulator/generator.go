package emulator

import (
	"fmt"
	"math/rand"
	"time"
)

// Config задает параметры генерации телеметрии.
type Config struct {
	BaseHR        int // базовый пульс
	HRVariability int // разброс вокруг базового значения
	BaseSpO2      int

	// Эпизоды NO_FINGER: каждые FingerOffEvery кадров устройство
	// сообщает FingerOffFrames кадров без валидных показаний.
	FingerOffEvery  int
	FingerOffFrames int
}

// DefaultConfig — параметры, близкие к реальному датчику на пальце.
func DefaultConfig() Config {
	return Config{
		BaseHR:          72,
		HRVariability:   4,
		BaseSpO2:        98,
		FingerOffEvery:  45,
		FingerOffFrames: 5,
	}
}

// Generator выдает кадры текстового протокола устройства. Значения ходят
// случайным блужданием вокруг базового уровня и ограничиваются
// физиологическими пределами.
type Generator struct {
	rand    *rand.Rand
	cfg     Config
	hr      int
	start   time.Time
	frameNo int
}

// NewGenerator создает генератор кадров.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:   cfg,
		hr:    cfg.BaseHR,
		start: time.Now(),
	}
}

// NextFrame возвращает следующий кадр протокола без завершающего '\n'.
func (g *Generator) NextFrame() string {
	g.frameNo++
	ts := time.Since(g.start).Milliseconds()

	if g.cfg.FingerOffEvery > 0 {
		phase := g.frameNo % g.cfg.FingerOffEvery
		if phase > 0 && phase <= g.cfg.FingerOffFrames {
			return fmt.Sprintf("HR_VALID:0,SPO2_VALID:0,IR_AVG:%d,IR_RANGE:%d,TIMESTAMP:%d,STATUS:NO_FINGER",
				2000+g.rand.Intn(500), 50+g.rand.Intn(30), ts)
		}
	}

	g.hr += g.rand.Intn(3) - 1
	if g.hr < g.cfg.BaseHR-g.cfg.HRVariability {
		g.hr = g.cfg.BaseHR - g.cfg.HRVariability
	}
	if g.hr > g.cfg.BaseHR+g.cfg.HRVariability {
		g.hr = g.cfg.BaseHR + g.cfg.HRVariability
	}

	spo2 := g.cfg.BaseSpO2 + g.rand.Intn(3) - 1
	if spo2 > 100 {
		spo2 = 100
	}

	irAvg := 50000 + g.rand.Intn(4000)
	irRange := 600 + g.rand.Intn(400)

	return fmt.Sprintf("HR:%d,HR_VALID:1,SPO2:%d,SPO2_VALID:1,IR_AVG:%d,IR_RANGE:%d,TIMESTAMP:%d",
		g.hr, spo2, irAvg, irRange, ts)
}

package thresholds

import (
	"fmt"
	"math"
)

// Mode активный режим порогов
type Mode string

const (
	ModeRelaxed    Mode = "relaxed"
	ModeNormal     Mode = "normal"
	ModeRestricted Mode = "restricted"
	ModeCustom     Mode = "custom"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRelaxed, ModeNormal, ModeRestricted, ModeCustom:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown threshold mode %q", s)
}

// Set пороги чувствительности пяти детекторов, все значения > 0
type Set struct {
	ZScore float64 `json:"zScore"`
	Mad    float64 `json:"mad"`
	Ewma   float64 `json:"ewma"`
	Hampel float64 `json:"hampel"`
	Rate   float64 `json:"rate"`
}

func (s Set) Valid() bool {
	for _, v := range []float64{s.ZScore, s.Mad, s.Ewma, s.Hampel, s.Rate} {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Именованные наборы. relaxed и restricted — верхняя и нижняя границы
// адаптивного диапазона исходной системы, normal — её значения по умолчанию.
func Relaxed() Set {
	return Set{ZScore: 3.0, Mad: 4.0, Ewma: 2.5, Hampel: 3.5, Rate: 25.0}
}

func Normal() Set {
	return Set{ZScore: 2.5, Mad: 3.5, Ewma: 2.0, Hampel: 3.0, Rate: 15.0}
}

func Restricted() Set {
	return Set{ZScore: 2.0, Mad: 3.0, Ewma: 1.5, Hampel: 2.5, Rate: 10.0}
}

// Default шаблон для custom-набора и откат при повреждённой конфигурации
func Default() Set {
	return Normal()
}

func named(m Mode) Set {
	switch m {
	case ModeRelaxed:
		return Relaxed()
	case ModeRestricted:
		return Restricted()
	default:
		return Normal()
	}
}

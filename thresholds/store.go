package thresholds

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"iot-anomaly-engine/models"
)

// Ключи во внешнем key-value хранилище
const (
	keyMode   = "thresholds:mode"
	keyCustom = "thresholds:custom"
)

// KV внешнее хранилище настроек (Redis, SQLite или память)
type KV interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
}

// Store хранит активный режим и пользовательский набор порогов.
// Единственное разделяемое состояние движка: настройки может менять
// внешний актор одновременно с чтением конвейером, поэтому все чтения
// отдают копию под мьютексом.
type Store struct {
	mu     sync.RWMutex
	mode   Mode
	custom Set

	kv  KV
	log *zap.Logger
}

// NewStore загружает сохранённые режим и custom-набор. Отсутствующие или
// повреждённые значения заменяются на normal/default; о повреждении
// дополнительно возвращается ValidationError, чтобы вызывающий мог
// залогировать инцидент.
func NewStore(ctx context.Context, kv KV, log *zap.Logger) (*Store, error) {
	s := &Store{
		mode:   ModeNormal,
		custom: Default(),
		kv:     kv,
		log:    log,
	}

	var corrupt *models.ValidationError

	if raw, ok, err := kv.GetString(ctx, keyMode); err != nil {
		return nil, err
	} else if ok {
		if m, perr := ParseMode(raw); perr != nil {
			corrupt = models.NewValidationError("stored threshold mode %q is corrupt", raw)
		} else {
			s.mode = m
		}
	}

	if raw, ok, err := kv.GetString(ctx, keyCustom); err != nil {
		return nil, err
	} else if ok {
		var set Set
		if uerr := json.Unmarshal([]byte(raw), &set); uerr != nil || !set.Valid() {
			corrupt = models.NewValidationError("stored custom thresholds are corrupt")
		} else {
			s.custom = set
		}
	}

	if corrupt != nil {
		log.Warn("falling back to default thresholds", zap.Error(corrupt))
		return s, corrupt
	}
	return s, nil
}

// Mode текущий режим
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Custom копия пользовательского набора
func (s *Store) Custom() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom
}

// Active действующий набор порогов: custom в режиме custom,
// иначе фиксированный именованный набор
func (s *Store) Active() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode == ModeCustom {
		return s.custom
	}
	return named(s.mode)
}

// SetMode переключает режим и сохраняет выбор. Custom-значения при
// переключении не сбрасываются.
func (s *Store) SetMode(ctx context.Context, mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return models.NewValidationError("%v", err)
	}

	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	if err := s.kv.SetString(ctx, keyMode, string(mode)); err != nil {
		return err
	}
	s.log.Info("threshold mode selected", zap.String("mode", string(mode)))
	return nil
}

// SetCustomValue перезаписывает одно поле custom-набора. Нечисловые и
// неположительные значения отклоняются, прежнее значение сохраняется.
func (s *Store) SetCustomValue(ctx context.Context, field, raw string) error {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return models.NewValidationError("threshold %q: %q is not a number", field, raw)
	}
	if value <= 0 {
		return models.NewValidationError("threshold %q must be positive, got %v", field, value)
	}

	s.mu.Lock()
	switch field {
	case "zScore":
		s.custom.ZScore = value
	case "mad":
		s.custom.Mad = value
	case "ewma":
		s.custom.Ewma = value
	case "hampel":
		s.custom.Hampel = value
	case "rate":
		s.custom.Rate = value
	default:
		s.mu.Unlock()
		return models.NewValidationError("unknown threshold field %q", field)
	}
	custom := s.custom
	s.mu.Unlock()

	data, err := json.Marshal(custom)
	if err != nil {
		return err
	}
	return s.kv.SetString(ctx, keyCustom, string(data))
}

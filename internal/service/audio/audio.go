package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSourceUnavailable аудиоподсистема непригодна. Фатально для цикла опроса.
	ErrSourceUnavailable = errors.New("audio: source unavailable")
	// ErrUnsupported нет реализации для текущей платформы.
	ErrUnsupported = errors.New("audio: unsupported on this platform")
)

// SessionState повторяет AudioSessionState из WASAPI.
type SessionState uint32

const (
	SessionInactive SessionState = iota
	SessionActive
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionInactive:
		return "inactive"
	case SessionActive:
		return "active"
	case SessionExpired:
		return "expired"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// Session описывает одну аудиосессию устройства вывода.
type Session struct {
	PID        uint32
	Identifier string
	State      SessionState
	Peak       float32
}

// Reading сырое значение сессии одного процесса.
type Reading struct {
	Found  bool
	Active bool
	Peak   float32
}

// SessionLister перечисляет аудиосессии устройства вывода.
type SessionLister interface {
	Sessions(ctx context.Context) ([]Session, error)
}

// Sample нормализованный результат: активная сессия с уровнем в [0,1] либо «нет данных».
type Sample struct {
	Active bool
	Level  float64
}

// Inactive «в этот тик информации нет»; не двигает и не сбрасывает таймеры.
var Inactive = Sample{}

// Levels уровни процессов, снятые одним перечислением сессий.
type Levels interface {
	Sample(pid uint32) Sample
}

// Snapshot сессии на момент одного перечисления.
type Snapshot []Session

func (s Snapshot) Sample(pid uint32) Sample { return Normalize(Lookup(s, pid)) }

// Sampler снимает уровни всех сессий за один вызов источника.
type Sampler struct {
	src SessionLister
}

func NewSampler(src SessionLister) *Sampler { return &Sampler{src: src} }

// Snapshot перечисляет сессии один раз. Ошибка источника оборачивается в ErrSourceUnavailable,
// отмена контекста возвращается как причина отмены.
func (s *Sampler) Snapshot(ctx context.Context) (Levels, error) {
	sessions, err := s.src.Sessions(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		if errors.Is(err, ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return Snapshot(sessions), nil
}

// Normalize приводит сырое показание к Sample.
func Normalize(r Reading) Sample {
	if !r.Found || !r.Active {
		return Inactive
	}
	l := float64(r.Peak)
	if math.IsNaN(l) {
		return Inactive
	}
	return Sample{Active: true, Level: max(0, min(1, l))}
}

// Lookup ищет сессию процесса среди перечисленных. Активная сессия приоритетнее неактивной.
func Lookup(sessions []Session, pid uint32) Reading {
	var r Reading
	for _, s := range sessions {
		if s.PID != pid {
			continue
		}
		if s.State == SessionActive {
			return Reading{Found: true, Active: true, Peak: s.Peak}
		}
		r = Reading{Found: true}
	}
	return r
}

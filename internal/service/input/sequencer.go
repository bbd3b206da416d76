package input

import (
	"BiteBot/internal/service/window"
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// KeySender отправляет нажатие и отпускание клавиши в окно.
type KeySender interface {
	KeyDown(h window.Handle) error
	KeyUp(h window.Handle) error
}

// Injector выполняет полное «нажатие клавиши действия» в окно.
type Injector interface {
	Inject(ctx context.Context, h window.Handle) error
}

// Rand источник случайности для предварительной задержки.
type Rand interface {
	Int63n(n int64) int64
}

type globalRand struct{}

func (globalRand) Int63n(n int64) int64 { return rand.Int63n(n) }

// Timing задаёт тайминги последовательности: случайная пауза, key-down, удержание, key-up.
type Timing struct {
	PreDelayMin time.Duration
	PreDelayMax time.Duration
	Hold        time.Duration
}

// Sequencer общая операция инъекции для заброса и подсечки.
// Минимальная задержка одной инъекции: PreDelayMin + Hold.
type Sequencer struct {
	sender KeySender
	timing Timing
	rnd    Rand
	logger *zap.SugaredLogger

	// sleep подменяется в тестах
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Injector = (*Sequencer)(nil)

func NewSequencer(sender KeySender, timing Timing, rnd Rand, logger *zap.SugaredLogger) *Sequencer {
	if rnd == nil {
		rnd = globalRand{}
	}
	if timing.PreDelayMax < timing.PreDelayMin {
		timing.PreDelayMax = timing.PreDelayMin
	}
	return &Sequencer{sender: sender, timing: timing, rnd: rnd, logger: logger, sleep: sleepCtx}
}

// Inject: случайная пауза, key-down, фиксированное удержание, key-up.
// Ошибка возвращается только для логирования: повтора нет, вызывающий считает нажатие выполненным.
func (s *Sequencer) Inject(ctx context.Context, h window.Handle) error {
	if err := s.sleep(ctx, s.preDelay()); err != nil {
		return err
	}
	if err := s.sender.KeyDown(h); err != nil {
		return fmt.Errorf("key down: %w", err)
	}
	// отпускаем клавишу даже при отмене контекста, чтобы она не «залипла»
	_ = s.sleep(context.WithoutCancel(ctx), s.timing.Hold)
	if err := s.sender.KeyUp(h); err != nil {
		return fmt.Errorf("key up: %w", err)
	}
	return nil
}

// MinLatency документированная нижняя граница длительности Inject.
func (s *Sequencer) MinLatency() time.Duration { return s.timing.PreDelayMin + s.timing.Hold }

func (s *Sequencer) preDelay() time.Duration {
	span := int64(s.timing.PreDelayMax - s.timing.PreDelayMin)
	if span <= 0 {
		return s.timing.PreDelayMin
	}
	return s.timing.PreDelayMin + time.Duration(s.rnd.Int63n(span))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}

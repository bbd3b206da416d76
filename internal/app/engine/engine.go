package engine

import (
	"BiteBot/internal/service/audio"
	"BiteBot/internal/service/detector"
	"BiteBot/internal/service/input"
	"BiteBot/internal/service/registry"
	"BiteBot/internal/service/window"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Policy фиксированные константы политики цикла.
type Policy struct {
	PollInterval    time.Duration // период тика
	ReelCooldown    time.Duration // пауза после подсечки перед новым забросом
	NoBiteTimeout   time.Duration // нет поклёвки дольше — перезаброс
	CastSuppression time.Duration // окно после заброса, в котором звук игнорируется

	// Async инъекция вне потока решений; тики для цели пропускаются, пока её инъекция не завершится.
	Async bool

	// DebugLevelFloor в режиме дебага логировать прочитанный уровень не ниже этого значения.
	Debug           bool
	DebugLevelFloor float64
}

// DefaultPolicy значения, откалиброванные под клиент игры.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:    50 * time.Millisecond,
		ReelCooldown:    time.Second,
		NoBiteTimeout:   30 * time.Second,
		CastSuppression: 5 * time.Second,
		DebugLevelFloor: 0.01,
	}
}

// Sampler снимает уровни всех сессий за один вызов (см. audio.Sampler).
type Sampler interface {
	Snapshot(ctx context.Context) (audio.Levels, error)
}

// Engine цикл опроса: один последовательный проход по всем целям за тик.
type Engine struct {
	reg      *registry.Registry
	sampler  Sampler
	detector *detector.Detector
	injector input.Injector
	observer Observer
	policy   Policy
	logger   *zap.SugaredLogger

	running  atomic.Bool
	inflight sync.WaitGroup
	// троттлинг дебаг-лога уровня по целям; доступ только из потока тиков
	levelLog map[uint32]*rate.Sometimes
}

func New(reg *registry.Registry, sampler Sampler, det *detector.Detector, inj input.Injector, obs Observer, policy Policy, logger *zap.SugaredLogger) *Engine {
	if policy.PollInterval <= 0 {
		policy.PollInterval = DefaultPolicy().PollInterval
	}
	if obs == nil {
		obs = Observers(nil)
	}
	return &Engine{
		reg:      reg,
		sampler:  sampler,
		detector: det,
		injector: inj,
		observer: obs,
		policy:   policy,
		logger:   logger,
		levelLog: make(map[uint32]*rate.Sometimes),
	}
}

// Running сообщает, идёт ли цикл сейчас.
func (e *Engine) Running() bool { return e.running.Load() }

// Run крутит тики до отмены контекста или фатальной ошибки аудиоисточника.
// Перед возвратом дожидается незавершённых асинхронных инъекций.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: already running")
	}
	defer e.running.Store(false)
	defer e.inflight.Wait()

	e.logger.Infow("Engine started",
		"interval", e.policy.PollInterval.String(),
		"async", e.policy.Async,
		"targets", e.reg.Len(),
	)

	t := time.NewTicker(e.policy.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Infow("Engine stopped", "reason", context.Cause(ctx))
			return context.Cause(ctx)
		case now := <-t.C:
			if err := e.Tick(ctx, now); err != nil {
				if ctx.Err() != nil {
					e.logger.Infow("Engine stopped", "reason", context.Cause(ctx))
					return context.Cause(ctx)
				}
				e.observer.Observe(Event{Kind: EventStopped, At: time.Now(), Error: err.Error()})
				return err
			}
		}
	}
}

// Tick выполняет один проход по всем целям на момент now.
// Снимок идентификаторов и уровней берётся один раз; удалённая в середине тика цель просто пропускается.
// Отмена ctx прерывает проход между целями и возвращается как причина отмены.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	ids := e.reg.IDs()
	e.forgetRemoved(ids)
	if len(ids) == 0 {
		return nil
	}
	// одно перечисление сессий на тик, вне блокировки реестра
	levels, err := e.sampler.Snapshot(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		var (
			dec  Decision
			h    window.Handle
			name string
		)
		found := e.reg.Update(id, func(t *registry.Target) {
			if t.Busy {
				return
			}
			dec = e.step(t, now, levels)
			h, name = t.Window, t.DisplayName
			if e.policy.Async && dec.Action.Injects() {
				t.Busy = true
			}
		})
		if !found {
			delete(e.levelLog, id)
			continue
		}
		e.logLevel(id, name, dec)
		e.apply(ctx, id, name, h, now, dec)
	}
	return nil
}

// apply выполняет побочные эффекты решения вне блокировки реестра.
func (e *Engine) apply(ctx context.Context, id uint32, name string, h window.Handle, now time.Time, dec Decision) {
	switch dec.Action {
	case ActionNone:
		return
	case ActionBite:
		e.logger.Infow("BITE! Reel in", "pid", id, "name", name, "level", dec.Level, "delay", dec.Delay.String())
		e.observer.Observe(Event{Kind: EventBite, TargetID: id, DisplayName: name, At: now, Level: dec.Level, Delay: dec.Delay})
		return
	case ActionReset:
		e.logger.Infow("RESET CAST", "pid", id, "name", name, "timeout", e.policy.NoBiteTimeout.String())
	case ActionReact:
		e.logger.Infow("Fish reeled in", "pid", id, "name", name, "duration", dec.Duration.String())
	}

	if !e.policy.Async {
		e.inject(ctx, id, name, h, now, dec)
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer e.reg.SetBusy(id, false)
		e.inject(ctx, id, name, h, now, dec)
	}()
}

// inject нажимает клавишу и фиксирует статистику. Ошибка инъекции не повторяется и не откатывает метки.
func (e *Engine) inject(ctx context.Context, id uint32, name string, h window.Handle, now time.Time, dec Decision) {
	if err := e.injector.Inject(ctx, h); err != nil {
		if ctx.Err() != nil {
			// остановка: клавиша не нажата, статистику не трогаем
			e.logger.Debugw("Key injection canceled", "pid", id, "action", dec.Action.String(), "reason", context.Cause(ctx))
			return
		}
		e.logger.Warnw("Key injection failed", "pid", id, "name", name, "action", dec.Action.String(), "error", err)
	}

	var ok bool
	ev := Event{TargetID: id, DisplayName: name, At: now}
	switch dec.Action {
	case ActionCast, ActionReset:
		ok = e.reg.RecordCast(id)
		ev.Kind = EventCast
		if dec.Action == ActionReset {
			ev.Kind = EventReset
		}
	case ActionReact:
		ok = e.reg.RecordReaction(id, dec.Duration)
		ev.Kind = EventReact
		ev.Duration = dec.Duration
	}
	if !ok {
		e.logger.Debugw("Target removed before stats commit", "pid", id, "action", dec.Action.String())
		return
	}
	e.observer.Observe(ev)
}

func (e *Engine) logLevel(id uint32, name string, dec Decision) {
	if !e.policy.Debug || !dec.Sampled || dec.Level < e.policy.DebugLevelFloor {
		return
	}
	s, ok := e.levelLog[id]
	if !ok {
		s = &rate.Sometimes{Interval: 250 * time.Millisecond}
		e.levelLog[id] = s
	}
	s.Do(func() {
		e.logger.Debugw("Volume", "pid", id, "name", name, "level", dec.Level)
	})
}

// forgetRemoved убирает троттлинг лога для целей, которых больше нет в реестре.
func (e *Engine) forgetRemoved(ids []uint32) {
	for id := range e.levelLog {
		if !slices.Contains(ids, id) {
			delete(e.levelLog, id)
		}
	}
}

package engine

import (
	"BiteBot/internal/service/audio"
	"BiteBot/internal/service/registry"
	"time"
)

// Action описывает результат одного тика для цели. Не более одного действия за тик.
type Action int

const (
	ActionNone Action = iota
	ActionCast
	ActionReset // принудительный перезаброс: та же запись состояния, что у Cast
	ActionBite
	ActionReact
)

func (a Action) String() string {
	switch a {
	case ActionCast:
		return "cast"
	case ActionReset:
		return "reset"
	case ActionBite:
		return "bite"
	case ActionReact:
		return "react"
	}
	return "none"
}

// Injects сообщает, нужно ли нажимать клавишу.
func (a Action) Injects() bool { return a == ActionCast || a == ActionReset || a == ActionReact }

// Decision хранит, что решено и с какими параметрами.
type Decision struct {
	Action   Action
	Sampled  bool          // уровень был прочитан в этот тик
	Level    float64       // прочитанный уровень (если Sampled)
	Delay    time.Duration // задержка подсечки (ActionBite)
	Duration time.Duration // заброс→подсечка (ActionReact)
}

// step применяет таблицу решений к цели и сразу фиксирует временные метки.
// Вызывается под блокировкой реестра. Порядок правил — приоритет, первое сработавшее побеждает.
func (e *Engine) step(t *registry.Target, now time.Time, levels audio.Levels) Decision {
	p := e.policy

	// 1. Пауза замораживает всё
	if t.Paused {
		return Decision{}
	}

	if !t.ReactionReadyAt.IsZero() {
		// 2. Время подсечки наступило — подсечка важнее любых других проверок
		if !now.Before(t.ReactionReadyAt) {
			d := now.Sub(t.LastCastAt)
			t.LastReelAt = now
			t.ReactionReadyAt = time.Time{}
			return Decision{Action: ActionReact, Duration: d}
		}
		// 3. Ждём задержку подсечки
		return Decision{}
	}

	// 4. Пауза между подсечкой и новым забросом
	if now.Sub(t.LastReelAt) < p.ReelCooldown {
		return Decision{}
	}

	// 5. Забрасываем, если после подсечки заброса ещё не было (или после снятия с паузы)
	if t.LastCastAt.Before(t.LastReelAt) || t.ForceCast {
		t.LastCastAt = now
		t.ForceCast = false
		return Decision{Action: ActionCast}
	}

	// 6. Долго нет поклёвки — перезабрасываем
	if now.Sub(t.LastCastAt) > p.NoBiteTimeout {
		t.LastCastAt = now
		return Decision{Action: ActionReset}
	}

	// 7. Не слушаем звук самого заброса
	if now.Sub(t.LastCastAt) < p.CastSuppression {
		return Decision{}
	}

	// 8. Слушаем
	s := levels.Sample(t.ID)
	if !s.Active {
		return Decision{}
	}
	dec := Decision{Sampled: true, Level: s.Level}
	if delay, ok := e.detector.Detect(s); ok {
		t.ReactionReadyAt = now.Add(delay)
		dec.Action = ActionBite
		dec.Delay = delay
	}
	return dec
}

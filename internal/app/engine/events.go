package engine

import (
	"time"
)

// EventKind тип заметного события цикла.
type EventKind string

const (
	EventCast    EventKind = "cast"
	EventReset   EventKind = "reset"
	EventBite    EventKind = "bite"
	EventReact   EventKind = "react"
	EventStopped EventKind = "stopped"
)

// Event публикуется наблюдателям после каждого действия движка.
type Event struct {
	Kind        EventKind     `json:"kind"`
	TargetID    uint32        `json:"pid,omitempty"`
	DisplayName string        `json:"name,omitempty"`
	At          time.Time     `json:"at"`
	Level       float64       `json:"level,omitempty"`
	Delay       time.Duration `json:"delay,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Observer получает события движка. Вызывается из разных горутин и не должен блокироваться.
type Observer interface {
	Observe(ev Event)
}

// Observers рассылает одно событие нескольким наблюдателям.
type Observers []Observer

func (o Observers) Observe(ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ev)
		}
	}
}

// ObserverFunc адаптирует функцию к Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

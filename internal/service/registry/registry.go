package registry

import (
	"BiteBot/internal/service/stats"
	"BiteBot/internal/service/window"
	"errors"
	"slices"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("registry: target not found")
	ErrExists   = errors.New("registry: target already tracked")
)

// Target отслеживаемая пара процесс/окно.
// Состояние автомата не хранится явно: оно выводится из временных меток.
type Target struct {
	ID          uint32        `json:"id"`
	Window      window.Handle `json:"-"`
	DisplayName string        `json:"displayName"`

	LastCastAt time.Time `json:"lastCastAt"`
	LastReelAt time.Time `json:"lastReelAt"`
	// Нулевое значение — поклёвки не было. Иначе: подсекать не раньше этого момента.
	ReactionReadyAt time.Time `json:"reactionReadyAt"`

	Paused bool `json:"paused"`
	// ForceCast следующий активный тик обязан сделать заброс (новая цель или снятие с паузы).
	ForceCast bool `json:"-"`
	// Busy для цели идёт инъекция клавиши (асинхронный режим), тики её пропускают.
	Busy bool `json:"-"`
}

// Entry содержит снимок цели вместе со статистикой для отображения.
type Entry struct {
	Target Target      `json:"target"`
	Stats  stats.Stats `json:"stats"`
}

// Registry владеет обеими картами (цели и статистика) под одним мьютексом.
// Пара Target/Stats создаётся и удаляется атомарно.
type Registry struct {
	mu      sync.Mutex
	targets map[uint32]*Target
	stats   map[uint32]*stats.Stats
	// явно удалённые цели; повторный поиск их не возвращает
	removed map[uint32]struct{}
}

func New() *Registry {
	return &Registry{
		targets: make(map[uint32]*Target),
		stats:   make(map[uint32]*stats.Stats),
		removed: make(map[uint32]struct{}),
	}
}

// Insert добавляет цель вместе с её статистикой. Новая цель стартует с обязательного заброса.
func (r *Registry) Insert(t Target, s stats.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[t.ID]; ok {
		return ErrExists
	}
	t.ForceCast = true
	t.Busy = false
	t.ReactionReadyAt = time.Time{}
	r.targets[t.ID] = &t
	r.stats[t.ID] = &s
	delete(r.removed, t.ID)
	return nil
}

// Remove удаляет цель и её статистику. Удаление окончательное: Removed(id) дальше возвращает true.
func (r *Registry) Remove(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[id]; !ok {
		return ErrNotFound
	}
	delete(r.targets, id)
	delete(r.stats, id)
	r.removed[id] = struct{}{}
	return nil
}

// Removed сообщает, была ли цель удалена явно.
func (r *Registry) Removed(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.removed[id]
	return ok
}

// Pause замораживает цель и сбрасывает ожидающую подсечку.
func (r *Registry) Pause(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok {
		return ErrNotFound
	}
	pause(t)
	return nil
}

// Resume снимает паузу; следующий активный тик сделает новый заброс.
func (r *Registry) Resume(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok {
		return ErrNotFound
	}
	resume(t)
	return nil
}

// PauseAll и ResumeAll — глобальный стоп/старт для всех целей.
func (r *Registry) PauseAll() {
	r.mu.Lock()
	for _, t := range r.targets {
		pause(t)
	}
	r.mu.Unlock()
}

func (r *Registry) ResumeAll() {
	r.mu.Lock()
	for _, t := range r.targets {
		resume(t)
	}
	r.mu.Unlock()
}

func pause(t *Target) {
	t.Paused = true
	t.ReactionReadyAt = time.Time{}
}

func resume(t *Target) {
	if !t.Paused {
		return
	}
	t.Paused = false
	t.ForceCast = true
}

// Update выполняет fn над целью под блокировкой. Возвращает false, если цели уже нет.
// fn не должна блокироваться: ожидания инъекции выполняются вне блокировки.
func (r *Registry) Update(id uint32, fn func(t *Target)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok {
		return false
	}
	fn(t)
	return true
}

// SetBusy помечает/снимает флаг идущей инъекции.
func (r *Registry) SetBusy(id uint32, busy bool) bool {
	return r.Update(id, func(t *Target) { t.Busy = busy })
}

// RecordCast увеличивает счётчик забросов. Отсутствующая цель — no-op (гонка с удалением).
func (r *Registry) RecordCast(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[id]
	if !ok {
		return false
	}
	*s = s.WithCast()
	return true
}

// RecordReaction добавляет длительность заброс→подсечка в среднее. Отсутствующая цель — no-op.
func (r *Registry) RecordReaction(id uint32, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[id]
	if !ok {
		return false
	}
	*s = s.WithReaction(d)
	return true
}

// IDs возвращает отсортированный снимок идентификаторов.
func (r *Registry) IDs() []uint32 {
	r.mu.Lock()
	ids := make([]uint32, 0, len(r.targets))
	for id := range r.targets {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}

func (r *Registry) Has(id uint32) bool {
	r.mu.Lock()
	_, ok := r.targets[id]
	r.mu.Unlock()
	return ok
}

func (r *Registry) Get(id uint32) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{Target: *t, Stats: *r.stats[id]}, true
}

// List возвращает копии всех пар Target/Stats, отсортированные по pid.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.targets))
	for id, t := range r.targets {
		out = append(out, Entry{Target: *t, Stats: *r.stats[id]})
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Target.ID < b.Target.ID:
			return -1
		case a.Target.ID > b.Target.ID:
			return 1
		}
		return 0
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	n := len(r.targets)
	r.mu.Unlock()
	return n
}

package journal

import "sync"

// Journal потокобезопасный буфер фиксированной ёмкости для последних событий.
type Journal[T any] struct {
	cap   int
	items []T
	mu    sync.Mutex
}

func New[T any](capacity int) *Journal[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &Journal[T]{cap: capacity, items: make([]T, 0, capacity)}
}

// Add добавляет запись, при переполнении удаляет самую старую.
func (j *Journal[T]) Add(v T) {
	j.mu.Lock()
	if len(j.items) == j.cap {
		copy(j.items, j.items[1:])
		j.items = j.items[:j.cap-1]
	}
	j.items = append(j.items, v)
	j.mu.Unlock()
}

// Recent возвращает не более n последних записей, от старых к новым. n <= 0 — все.
func (j *Journal[T]) Recent(n int) []T {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n <= 0 || n > len(j.items) {
		n = len(j.items)
	}
	out := make([]T, n)
	copy(out, j.items[len(j.items)-n:])
	return out
}

func (j *Journal[T]) Len() int {
	j.mu.Lock()
	l := len(j.items)
	j.mu.Unlock()
	return l
}

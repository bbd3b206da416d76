package window

import "errors"

// Handle непрозрачная ссылка на окно (HWND на Windows). Ядро её не интерпретирует.
type Handle uintptr

var (
	// ErrNotFound у процесса нет подходящего окна.
	ErrNotFound = errors.New("window: no window for process")
	// ErrUnsupported платформа без реализации.
	ErrUnsupported = errors.New("window: unsupported on this platform")
)

// Resolver находит окно процесса по pid. Используется только при регистрации целей.
type Resolver interface {
	Resolve(pid uint32) (Handle, string, error)
}

//go:build windows

package window

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

// Обёртки для функций, которых может не быть в lxn/win
var (
	user32                   = syscall.NewLazyDLL("user32.dll")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
)

// Колбэк создаём один раз: syscall.NewCallback не освобождает слоты.
var (
	enumMu       sync.Mutex
	enumState    *collector
	enumCallback = syscall.NewCallback(func(hwnd win.HWND, _ uintptr) uintptr {
		if enumState.visit(hwnd) {
			return 1
		}
		return 0
	})
)

type collector struct {
	pid      uint32
	hwnd     win.HWND
	title    string
	fallback win.HWND
}

// visit возвращает false, когда нашли видимое окно с заголовком и перебор можно остановить.
func (c *collector) visit(hwnd win.HWND) bool {
	var pid uint32
	win.GetWindowThreadProcessId(hwnd, &pid)
	if pid != c.pid {
		return true
	}
	if c.fallback == 0 {
		c.fallback = hwnd
	}
	if !win.IsWindowVisible(hwnd) {
		return true
	}
	title := windowText(hwnd)
	if title == "" {
		return true
	}
	c.hwnd = hwnd
	c.title = title
	return false
}

type winResolver struct{}

// NewResolver возвращает резолвер на EnumWindows.
func NewResolver() Resolver { return winResolver{} }

func (winResolver) Resolve(pid uint32) (Handle, string, error) {
	if procEnumWindows.Find() != nil {
		return 0, "", ErrUnsupported
	}

	c := &collector{pid: pid}
	enumMu.Lock()
	enumState = c
	_, _, _ = procEnumWindows.Call(enumCallback, 0)
	enumState = nil
	enumMu.Unlock()

	switch {
	case c.hwnd != 0:
		return Handle(c.hwnd), c.title, nil
	case c.fallback != 0:
		return Handle(c.fallback), windowText(c.fallback), nil
	default:
		return 0, "", ErrNotFound
	}
}

// Focus выводит окно на передний план (нужно для глобальной инъекции клавиш).
func Focus(h Handle) bool { return win.SetForegroundWindow(win.HWND(h)) }

func windowText(hwnd win.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	_, _, _ = procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf)
}

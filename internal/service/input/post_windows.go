//go:build windows

package input

import (
	"BiteBot/internal/service/window"
	"errors"

	"github.com/lxn/win"
)

var errPostFailed = errors.New("input: PostMessage failed")

// PostMessage кладёт WM_KEYDOWN/WM_KEYUP в очередь окна: фокус не нужен, окно может быть свёрнуто.
type PostMessage struct {
	key Key
}

func NewPostMessage(key Key) (*PostMessage, error) { return &PostMessage{key: key}, nil }

func (p *PostMessage) KeyDown(h window.Handle) error { return p.post(h, win.WM_KEYDOWN) }

func (p *PostMessage) KeyUp(h window.Handle) error { return p.post(h, win.WM_KEYUP) }

func (p *PostMessage) post(h window.Handle, msg uint32) error {
	vk := uintptr(p.key.VK)
	// в lParam биты 16-23 — скан-код; клиент игры смотрит только на wParam
	if win.PostMessage(win.HWND(h), msg, vk, vk<<16) == 0 {
		return errPostFailed
	}
	return nil
}

package input

import (
	"BiteBot/internal/service/window"
	"fmt"
	"strings"
	"sync"

	"github.com/micmonay/keybd_event"
)

// Способы доставки нажатия
const (
	MethodPost   = "post"   // WM_KEYDOWN/WM_KEYUP в конкретное окно, работает в фоне
	MethodGlobal = "global" // системное нажатие, попадает в окно переднего плана
)

// NewSender создаёт отправителя клавиш по имени метода.
func NewSender(method string, key Key) (KeySender, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodPost, "":
		p, err := NewPostMessage(key)
		if err != nil {
			return nil, err
		}
		return p, nil
	case MethodGlobal:
		g, err := NewGlobal(key)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("input: unknown inject method %q", method)
	}
}

// Коды keybd_event отличаются по платформам, поэтому своя таблица.
var globalCodes = map[string]int{
	"F1": keybd_event.VK_F1, "F2": keybd_event.VK_F2, "F3": keybd_event.VK_F3,
	"F4": keybd_event.VK_F4, "F5": keybd_event.VK_F5, "F6": keybd_event.VK_F6,
	"F7": keybd_event.VK_F7, "F8": keybd_event.VK_F8, "F9": keybd_event.VK_F9,
	"F10": keybd_event.VK_F10, "F11": keybd_event.VK_F11, "F12": keybd_event.VK_F12,
	"SPACE": keybd_event.VK_SPACE,
}

// Global нажимает клавишу через keybd_event. Окно перед нажатием выводится на передний план (только Windows).
type Global struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

func NewGlobal(key Key) (*Global, error) {
	code, ok := globalCodes[key.Name]
	if !ok {
		return nil, fmt.Errorf("input: key %s is not supported by global method", key)
	}
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("input: keybd_event: %w", err)
	}
	kb.SetKeys(code)
	return &Global{kb: kb}, nil
}

func (g *Global) KeyDown(h window.Handle) error {
	window.Focus(h)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.kb.Press()
}

func (g *Global) KeyUp(window.Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.kb.Release()
}

//go:build !windows

package input

import (
	"BiteBot/internal/service/window"
	"errors"
)

var errPostUnsupported = errors.New("input: post method requires windows")

// PostMessage недоступен вне Windows.
type PostMessage struct{}

func NewPostMessage(Key) (*PostMessage, error) { return nil, errPostUnsupported }

func (*PostMessage) KeyDown(window.Handle) error { return errPostUnsupported }

func (*PostMessage) KeyUp(window.Handle) error { return errPostUnsupported }

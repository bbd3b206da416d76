//go:build !windows

package wasapi

import (
	"BiteBot/internal/service/audio"
	"context"

	"go.uber.org/zap"
)

// Client заглушка для платформ без WASAPI.
type Client struct{}

// Open вне Windows всегда возвращает audio.ErrUnsupported.
func Open(*zap.SugaredLogger) (*Client, error) { return nil, audio.ErrUnsupported }

func (*Client) Close() {}

func (*Client) Sessions(context.Context) ([]audio.Session, error) {
	return nil, audio.ErrUnsupported
}

package wasapi

import (
	"context"
	"errors"
	"runtime"
)

var errClosed = errors.New("wasapi: client closed")

// thread выполняет все вызовы на одном закреплённом системном потоке.
// COM-объекты WASAPI привязаны к потоку, в котором вызван CoInitialize.
type thread struct {
	calls chan func()
	quit  chan struct{}
	done  chan struct{}
}

// startThread запускает поток, выполняет init и ждёт его результат.
// cleanup вызывается на том же потоке при остановке.
func startThread(init func() error, cleanup func()) (*thread, error) {
	t := &thread{calls: make(chan func()), quit: make(chan struct{}), done: make(chan struct{})}
	initErr := make(chan error, 1)

	go func() {
		// UI/COM должен жить в закрепленном системном потоке
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(t.done)

		if err := init(); err != nil {
			initErr <- err
			return
		}
		initErr <- nil
		defer cleanup()

		for {
			select {
			case <-t.quit:
				return
			case fn := <-t.calls:
				fn()
			}
		}
	}()

	if err := <-initErr; err != nil {
		return nil, err
	}
	return t, nil
}

// do выполняет fn на потоке и возвращает её ошибку. Ожидание прерывается отменой ctx.
func (t *thread) do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	call := func() { res <- fn() }

	select {
	case <-t.done:
		return errClosed
	case <-ctx.Done():
		return context.Cause(ctx)
	case t.calls <- call:
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// stop останавливает поток и ждёт его завершения.
func (t *thread) stop() {
	close(t.quit)
	<-t.done
}

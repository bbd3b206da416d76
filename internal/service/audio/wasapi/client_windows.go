//go:build windows

package wasapi

import (
	"BiteBot/internal/service/audio"
	"context"
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
	"go.uber.org/zap"
)

// Client читает аудиосессии устройства вывода по умолчанию через WASAPI.
type Client struct {
	th     *thread
	logger *zap.SugaredLogger

	// живут только в потоке th
	enumerator *wca.IMMDeviceEnumerator
	manager    *wca.IAudioSessionManager2
}

var _ audio.SessionLister = (*Client)(nil)

// Open инициализирует COM и получает IAudioSessionManager2 для eRender/eMultimedia.
func Open(logger *zap.SugaredLogger) (*Client, error) {
	c := &Client{logger: logger}
	th, err := startThread(c.init, c.release)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrSourceUnavailable, err)
	}
	c.th = th
	return c, nil
}

func (c *Client) init() error {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		// S_FALSE: COM уже инициализирован в этом потоке — не ошибка
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			return fmt.Errorf("CoInitializeEx: %w", err)
		}
	}

	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &c.enumerator); err != nil {
		ole.CoUninitialize()
		return fmt.Errorf("create device enumerator: %w", err)
	}

	// eRender воспроизведение
	var device *wca.IMMDevice
	if err := c.enumerator.GetDefaultAudioEndpoint(wca.ERender, wca.EMultimedia, &device); err != nil {
		c.release()
		return fmt.Errorf("default audio endpoint: %w", err)
	}
	defer device.Release()

	if err := device.Activate(wca.IID_IAudioSessionManager2, wca.CLSCTX_ALL, nil, &c.manager); err != nil {
		c.release()
		return fmt.Errorf("activate session manager: %w", err)
	}
	return nil
}

func (c *Client) release() {
	if c.manager != nil {
		c.manager.Release()
		c.manager = nil
	}
	if c.enumerator != nil {
		c.enumerator.Release()
		c.enumerator = nil
	}
	ole.CoUninitialize()
}

// Close освобождает COM-объекты и останавливает поток.
func (c *Client) Close() {
	c.th.stop()
}

// Sessions перечисляет текущие сессии. Перечислитель берётся заново на каждый вызов,
// иначе новые сессии не появляются.
func (c *Client) Sessions(ctx context.Context) ([]audio.Session, error) {
	var out []audio.Session
	err := c.th.do(ctx, func() error {
		var err error
		out, err = c.enumerate()
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		return nil, fmt.Errorf("%w: %w", audio.ErrSourceUnavailable, err)
	}
	return out, nil
}

func (c *Client) enumerate() ([]audio.Session, error) {
	var sessions *wca.IAudioSessionEnumerator
	if err := c.manager.GetSessionEnumerator(&sessions); err != nil {
		return nil, fmt.Errorf("GetSessionEnumerator: %w", err)
	}
	defer sessions.Release()

	var count int
	if err := sessions.GetCount(&count); err != nil {
		return nil, fmt.Errorf("GetCount: %w", err)
	}

	out := make([]audio.Session, 0, count)
	for i := range count {
		var control *wca.IAudioSessionControl
		if err := sessions.GetSession(i, &control); err != nil {
			return nil, fmt.Errorf("GetSession(%d): %w", i, err)
		}
		s, err := readSession(control)
		control.Release()
		if err != nil {
			// сессия могла исчезнуть между GetCount и чтением — пропускаем только её
			c.logger.Debugw("Skipping audio session", "index", i, "error", err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func readSession(control *wca.IAudioSessionControl) (audio.Session, error) {
	var s audio.Session

	var state uint32
	if err := control.GetState(&state); err != nil {
		return s, fmt.Errorf("GetState: %w", err)
	}
	s.State = audio.SessionState(state)

	d, err := control.QueryInterface(wca.IID_IAudioSessionControl2)
	if err != nil {
		return s, fmt.Errorf("IAudioSessionControl2: %w", err)
	}
	control2 := (*wca.IAudioSessionControl2)(unsafe.Pointer(d))
	defer control2.Release()

	if err := control2.GetProcessId(&s.PID); err != nil {
		return s, fmt.Errorf("GetProcessId: %w", err)
	}
	if err := control2.GetSessionIdentifier(&s.Identifier); err != nil {
		return s, fmt.Errorf("GetSessionIdentifier: %w", err)
	}

	d, err = control.QueryInterface(wca.IID_IAudioMeterInformation)
	if err != nil {
		return s, fmt.Errorf("IAudioMeterInformation: %w", err)
	}
	meter := (*wca.IAudioMeterInformation)(unsafe.Pointer(d))
	defer meter.Release()

	if err := meter.GetPeakValue(&s.Peak); err != nil {
		return s, fmt.Errorf("GetPeakValue: %w", err)
	}
	return s, nil
}

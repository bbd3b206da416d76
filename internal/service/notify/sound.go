package notify

import (
	"BiteBot/internal/service/player"
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Alert проигрывает звук при аварийной остановке цикла.
type Alert struct {
	logger *zap.SugaredLogger
	path   string
	ply    player.Player
}

// NewAlert создаёт нотификатор. Пустой путь — звук отключён.
// Относительный путь сначала ищется рядом с бинарём, затем от рабочей директории.
func NewAlert(logger *zap.SugaredLogger, path string, ply player.Player) *Alert {
	if ply == nil {
		ply = player.New()
	}
	return &Alert{logger: logger, path: resolve(strings.TrimSpace(path)), ply: ply}
}

func resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), p)
		if _, statErr := os.Stat(cand); statErr == nil {
			return cand
		}
	}
	return filepath.FromSlash(p)
}

// Play проигрывает звук. Ошибки логируются и возвращаются,
// чтобы вызывающий мог принять решение (например, проигнорировать).
func (a *Alert) Play(ctx context.Context) error {
	if a.path == "" {
		return nil
	}
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	default:
	}

	f, err := os.Open(a.path)
	if err != nil {
		a.logger.Warnw("Не удалось открыть звуковой файл оповещения", "path", a.path, "error", err)
		return err
	}
	defer f.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(a.path), "."))
	if ext == "" {
		ext = "mp3" // по умолчанию
	}
	if err := a.ply.Play(ctx, ext, f); err != nil {
		a.logger.Warnw("Не удалось воспроизвести звуковое оповещение", "path", a.path, "error", err)
		return err
	}
	return nil
}

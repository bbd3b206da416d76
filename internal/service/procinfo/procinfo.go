package procinfo

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Namer возвращает имя исполняемого файла процесса.
type Namer interface {
	Name(ctx context.Context, pid uint32) (string, error)
}

// System читает имена процессов через gopsutil.
type System struct{}

func (System) Name(ctx context.Context, pid uint32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", fmt.Errorf("procinfo: pid %d: %w", pid, err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("procinfo: name of pid %d: %w", pid, err)
	}
	return name, nil
}

// Self возвращает pid текущего процесса; собственная аудиосессия никогда не становится целью.
func Self() uint32 { return uint32(os.Getpid()) }

// Contains проверяет вхождение подстроки без учёта регистра. С пустым шаблоном ничего не совпадает.
func Contains(s, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(pattern))
}

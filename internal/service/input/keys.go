package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Key клавиша действия. VK — виртуальный код Windows.
type Key struct {
	Name string
	VK   uint16
}

const (
	vkSpace = 0x20
	vkF1    = 0x70
)

// ParseKey разбирает имя клавиши: F1..F12, SPACE, 0..9, A..Z (регистр не важен).
func ParseKey(name string) (Key, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	switch {
	case n == "SPACE":
		return Key{Name: n, VK: vkSpace}, nil
	case len(n) >= 2 && n[0] == 'F':
		i, err := strconv.Atoi(n[1:])
		if err == nil && i >= 1 && i <= 12 {
			return Key{Name: n, VK: uint16(vkF1 + i - 1)}, nil
		}
	case len(n) == 1 && n[0] >= '0' && n[0] <= '9':
		return Key{Name: n, VK: uint16(n[0])}, nil
	case len(n) == 1 && n[0] >= 'A' && n[0] <= 'Z':
		return Key{Name: n, VK: uint16(n[0])}, nil
	}
	return Key{}, fmt.Errorf("input: unsupported key %q", name)
}

func (k Key) String() string { return k.Name }

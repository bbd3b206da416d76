//go:build !windows

package window

type stubResolver struct{}

// NewResolver на не-Windows платформах всегда возвращает ErrUnsupported.
func NewResolver() Resolver { return stubResolver{} }

func (stubResolver) Resolve(uint32) (Handle, string, error) { return 0, "", ErrUnsupported }

// Focus no-op вне Windows.
func Focus(Handle) bool { return false }

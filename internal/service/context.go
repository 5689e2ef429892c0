package service

import "context"

type managerCtxKey struct{}

// WithManager returns a context carrying the session manager, for handler
// trees and components that receive their dependencies through context.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey{}, m)
}

// ManagerFrom extracts the session manager from the context.
func ManagerFrom(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(managerCtxKey{}).(*Manager)
	return m, ok
}

// MustManager extracts the session manager or panics. Accessing the session
// outside the scope where it was wired is a configuration bug, and it should
// fail loudly at the access site instead of degrading into a permanently
// anonymous session.
func MustManager(ctx context.Context) *Manager {
	m, ok := ManagerFrom(ctx)
	if !ok {
		panic("sessionkit: no session Manager in context; wrap the context with service.WithManager during startup")
	}
	return m
}

// Package mocks provides mock implementations for testing the session kit.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockIdentity := mocks.NewMockIdentity(ctrl)
//	mockIdentity.EXPECT().Login(gomock.Any(), "a@b.c", "pw").Return(user, nil)
package mocks

// Generate mock for Identity interface from internal/ports package.
// This creates MockIdentity with methods for all Identity interface methods:
// Login, Logout, SwitchRole, RefreshToken, ValidateToken, ChangePassword,
// ResetPassword, CurrentUser, IsAuthenticated, Permissions, CheckSession, ClearAuthData
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_mock.go github.com/edustack/sessionkit/internal/ports Identity

// Generate mock for CredentialStore interface from internal/ports package.
// This creates MockCredentialStore with methods for all CredentialStore interface methods:
// Save, Load, Clear
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=credential_store_mock.go github.com/edustack/sessionkit/internal/ports CredentialStore

// Package devmode provides the shared development account used by the dev
// backend and the CLI.
package devmode

// Development account seeded into the dev backend. These credentials are
// intentionally obvious and must never be used against a real service.
const (
	Username = "dev"
	Email    = "dev@localhost"
	Password = "LOCAL_DEV_MODE_NOT_FOR_PRODUCTION"
)

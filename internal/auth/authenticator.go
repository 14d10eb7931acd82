// Package auth provides user authentication: credential verification
// and JWT session tokens.
package auth

import (
	"context"

	"github.com/divvyhq/divvy/internal/models"
)

// Authenticator defines the interface for authentication
// implementations, so the HTTP layer stays independent of the auth
// method (password today, OAuth or passkeys later).
type Authenticator interface {
	// Register creates a new user account with the given email and
	// credential. Returns the created user or an error if registration
	// fails.
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user
	// if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}

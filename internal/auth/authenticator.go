// Package auth registers and authenticates users and issues session tokens.
package auth

import (
	"context"

	"github.com/mmynk/houseshare/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The service layer only depends on this, so password login can be swapped for
// another credential type without touching it.
type Authenticator interface {
	// Register creates a new user account. Returns ErrEmailExists if the email is taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user if the credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential format before registration.
	ValidateCredential(credential string) error
}

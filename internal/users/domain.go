package users

import "github.com/octabox/octabox/internal/auth"

// Member is a directory row shown on the admin console.
type Member struct {
	auth.Principal
	IsAdmin bool
}

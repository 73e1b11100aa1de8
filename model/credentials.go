package model

import "context"

// UserTokenKey is the single slot the access token is persisted under.
const UserTokenKey = "userToken"

type (
	// CredentialStore persists at most one access token.
	// Load returns nil without an error when no token is stored.
	CredentialStore interface {
		Save(ctx context.Context, token string) error
		Load(ctx context.Context) (*Credential, error)
		Clear(ctx context.Context) error
	}

	Credential struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}
)

func (c *Credential) String() string {
	if c == nil {
		return "<none>"
	}
	if len(c.Value) <= 4 {
		return "****"
	}
	return "****" + c.Value[len(c.Value)-4:]
}

package models

import "time"

// ServiceToken is a long-lived automation token row.
//
// TokenID is a truncated one-way hash of the raw token used purely as the
// storage lookup key; TokenHash is the actual salted verifier (bcrypt of
// the full raw token). The raw token itself is never stored.
type ServiceToken struct {
	TokenID    string
	Username   string
	Name       string
	TokenHash  string
	WrappedKey []byte
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	LastUsed   *time.Time
	Revoked    bool
}

// ServiceTokenInfo is the listing view of a ServiceToken: non-sensitive
// fields only, never the hash or wrapped key.
type ServiceTokenInfo struct {
	TokenID   string
	Name      string
	CreatedAt time.Time
	ExpiresAt *time.Time
	LastUsed  *time.Time
	Revoked   bool
}

// Info projects the row to its listing view.
func (t *ServiceToken) Info() ServiceTokenInfo {
	return ServiceTokenInfo{
		TokenID:   t.TokenID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
		LastUsed:  t.LastUsed,
		Revoked:   t.Revoked,
	}
}

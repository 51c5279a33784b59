package models

import "time"

// Secret is a stored credential. Only the password field is encrypted;
// the identifying fields stay in the clear so secrets can be listed and
// looked up without key material.
type Secret struct {
	Username          string
	Category          string
	Account           string
	AccountUsername   string
	EncryptedPassword string
	LastModified      time.Time
}

// SecretInfo is the listing view of a secret: everything except the
// ciphertext.
type SecretInfo struct {
	Category        string
	Account         string
	AccountUsername string
	LastModified    time.Time
}

// Info strips the ciphertext from a secret row.
func (s *Secret) Info() SecretInfo {
	return SecretInfo{
		Category:        s.Category,
		Account:         s.Account,
		AccountUsername: s.AccountUsername,
		LastModified:    s.LastModified,
	}
}

// Package auth provides a high-level API for persisting and retrieving platform credentials from the system keyring.
package auth

import (
	"github.com/zalando/go-keyring"
)

const (
	service = "crunchy"
	user    = "refresh-token"
)

// SetRefreshToken persists the platform refresh token to the system keyring.
func SetRefreshToken(token string) error {
	return keyring.Set(service, user, token)
}

// GetRefreshToken retrieves the platform refresh token from the system keyring.
func GetRefreshToken() (string, error) {
	return keyring.Get(service, user)
}

// DeleteRefreshToken removes the platform refresh token from the system keyring.
func DeleteRefreshToken() error {
	return keyring.Delete(service, user)
}

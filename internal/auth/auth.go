// Package auth keeps service principal client secrets in the OS keychain
// so they need not appear on the command line or in the config file.
package auth

import (
	"errors"
	"strings"
)

const ServiceName = "check_azure"

var ErrSecretNotFound = errors.New("client secret not found")

// Store persists client secrets per (tenant, client) pair.
type Store interface {
	SetSecret(tenantID, clientID, secret string) error
	GetSecret(tenantID, clientID string) (string, error)
	DeleteSecret(tenantID, clientID string) error
}

// DefaultStore returns the standard store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// Account is the keychain account name for a service principal.
func Account(tenantID, clientID string) string {
	return strings.ToLower(strings.TrimSpace(tenantID)) + "/" + strings.ToLower(strings.TrimSpace(clientID))
}

package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetSecret(tenantID, clientID, secret string) error {
	return keyring.Set(k.serviceName, Account(tenantID, clientID), secret)
}

func (k *KeyringStore) GetSecret(tenantID, clientID string) (string, error) {
	secret, err := keyring.Get(k.serviceName, Account(tenantID, clientID))
	if err == nil {
		return secret, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteSecret(tenantID, clientID string) error {
	err := keyring.Delete(k.serviceName, Account(tenantID, clientID))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrSecretNotFound
	}
	return err
}

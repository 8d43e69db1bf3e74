package auth

// MockStore is an in-memory secret store for testing.
type MockStore struct {
	secrets map[string]string
	err     error
}

func NewMockStore() *MockStore {
	return &MockStore{secrets: make(map[string]string)}
}

// FailWith makes every call return err, e.g. to simulate a headless host
// without a keychain.
func (m *MockStore) FailWith(err error) { m.err = err }

func (m *MockStore) SetSecret(tenantID, clientID, secret string) error {
	if m.err != nil {
		return m.err
	}
	m.secrets[Account(tenantID, clientID)] = secret
	return nil
}

func (m *MockStore) GetSecret(tenantID, clientID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	secret, ok := m.secrets[Account(tenantID, clientID)]
	if !ok {
		return "", ErrSecretNotFound
	}
	return secret, nil
}

func (m *MockStore) DeleteSecret(tenantID, clientID string) error {
	if m.err != nil {
		return m.err
	}
	key := Account(tenantID, clientID)
	if _, ok := m.secrets[key]; !ok {
		return ErrSecretNotFound
	}
	delete(m.secrets, key)
	return nil
}

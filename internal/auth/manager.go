// Package auth turns configured credentials into go-git transport auth methods.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Provider creates auth for one authentication type.
type Provider interface {
	// Type returns the authentication type this provider handles.
	Type() config.AuthType

	// CreateAuth creates a transport.AuthMethod from the configuration.
	// Returns nil, nil for no authentication.
	CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error)
}

// Manager dispatches to the provider registered for a config's type.
type Manager struct {
	providers map[config.AuthType]Provider
}

// NewManager creates a manager with the standard providers.
func NewManager() *Manager {
	m := &Manager{providers: make(map[config.AuthType]Provider)}
	m.Register(noneProvider{})
	m.Register(sshProvider{})
	m.Register(tokenProvider{})
	m.Register(basicProvider{})
	return m
}

// Register adds or replaces a provider.
func (m *Manager) Register(p Provider) {
	m.providers[p.Type()] = p
}

// CreateAuth creates authentication for the given configuration. A nil
// configuration means no authentication.
func (m *Manager) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg == nil {
		return nil, nil
	}
	authType := authCfg.Type
	if authType == "" {
		authType = config.AuthTypeNone
	}
	p, ok := m.providers[authType]
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported authentication type: %s", authCfg.Type)).
			WithContext("type", authCfg.Type).
			Build()
	}
	return p.CreateAuth(authCfg)
}

// DefaultManager is a package-level instance for convenience.
var DefaultManager = NewManager()

// CreateAuth is a convenience function that uses the default manager.
func CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	return DefaultManager.CreateAuth(authCfg)
}

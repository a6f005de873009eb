package auth

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

type noneProvider struct{}

func (noneProvider) Type() config.AuthType { return config.AuthTypeNone }

func (noneProvider) CreateAuth(*config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil
}

type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	keyPath := authCfg.KeyPath
	if keyPath == "" {
		keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
	}
	publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, authCfg.Password)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAuth, "failed to load SSH key").
			UserAction().
			WithContext("key_path", keyPath).
			Build()
	}
	return publicKeys, nil
}

type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (tokenProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg.Token == "" {
		return nil, errors.ConfigError("token authentication requires a token").Build()
	}
	username := authCfg.Username
	if username == "" {
		// Most hosting services accept any non-empty username with a token.
		username = "token"
	}
	return &http.BasicAuth{Username: username, Password: authCfg.Token}, nil
}

type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (basicProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg.Username == "" || authCfg.Password == "" {
		return nil, errors.ConfigError("basic authentication requires username and password").Build()
	}
	return &http.BasicAuth{Username: authCfg.Username, Password: authCfg.Password}, nil
}

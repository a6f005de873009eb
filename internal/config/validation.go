package config

import (
	"fmt"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Anchor names accepted under "anchors:".
var knownAnchors = map[string]bool{
	"reviews-primary":   true,
	"reviews-secondary": true,
	"faqs-list":         true,
	"gallery-grid":      true,
	"reels-list":        true,
}

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if cfg.Publish.Backend != BackendExec && cfg.Publish.Backend != BackendGoGit {
		return errors.ValidationError(fmt.Sprintf("unsupported publish backend: %s", cfg.Publish.Backend)).
			WithContext("backend", cfg.Publish.Backend).
			Build()
	}
	if cfg.Publish.Interval < 0 {
		return errors.ValidationError("publish interval must not be negative").Build()
	}
	if auth := cfg.Publish.Auth; auth != nil {
		if err := validateAuth(auth); err != nil {
			return err
		}
	}
	for name, sel := range cfg.Anchors {
		if !knownAnchors[name] {
			return errors.ValidationError(fmt.Sprintf("unknown anchor: %s", name)).
				WithContext("anchor", name).
				Build()
		}
		if selectorEmpty(sel) {
			return errors.ValidationError(fmt.Sprintf("anchor %s has no selector criteria", name)).
				WithContext("anchor", name).
				Build()
		}
	}
	return nil
}

func validateAuth(auth *AuthConfig) error {
	switch auth.Type {
	case AuthTypeSSH, AuthTypeNone, "":
		return nil
	case AuthTypeToken:
		if auth.Token == "" {
			return errors.ValidationError("token auth requires a token").Build()
		}
	case AuthTypeBasic:
		if auth.Username == "" || auth.Password == "" {
			return errors.ValidationError("basic auth requires username and password").Build()
		}
	default:
		return errors.ValidationError(fmt.Sprintf("unsupported auth type: %s", auth.Type)).
			WithContext("type", auth.Type).
			Build()
	}
	return nil
}

func selectorEmpty(sel AnchorConfig) bool {
	return sel.Tag == "" && sel.ID == "" && sel.Class == "" && len(sel.Attrs) == 0
}

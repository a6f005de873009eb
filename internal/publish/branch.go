package publish

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// ValidateBranch checks name against git's ref-format rules for a branch and
// rejects anything that could be read as a command-line option.
func ValidateBranch(name string) error {
	if reason := invalidRefReason(name); reason != "" {
		return errors.ValidationError(fmt.Sprintf("invalid branch name %q: %s", name, reason)).
			WithContext("branch", name).
			Build()
	}
	return nil
}

// ValidateRemote checks a remote name.
func ValidateRemote(name string) error {
	if reason := invalidRefReason(name); reason != "" || strings.Contains(name, "/") {
		if reason == "" {
			reason = "contains '/'"
		}
		return errors.ValidationError(fmt.Sprintf("invalid remote name %q: %s", name, reason)).
			WithContext("remote", name).
			Build()
	}
	return nil
}

func invalidRefReason(name string) string {
	switch {
	case name == "":
		return "empty"
	case name == "@":
		return "is '@'"
	case strings.HasPrefix(name, "-"):
		return "starts with '-'"
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return "starts or ends with '/'"
	case strings.HasSuffix(name, "."):
		return "ends with '.'"
	case strings.HasSuffix(name, ".lock"):
		return "ends with '.lock'"
	case strings.Contains(name, ".."):
		return "contains '..'"
	case strings.Contains(name, "//"):
		return "contains '//'"
	case strings.Contains(name, "@{"):
		return "contains '@{'"
	case strings.Contains(name, "/."):
		return "has a component starting with '.'"
	case strings.HasPrefix(name, "."):
		return "starts with '.'"
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "contains control characters"
		}
		switch r {
		case ' ', '~', '^', ':', '?', '*', '[', '\\':
			return fmt.Sprintf("contains %q", r)
		}
	}
	return ""
}

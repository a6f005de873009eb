package eventstore

import (
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

func historyErr(message string, cause error) error {
	return errors.HistoryError(message).WithCause(cause).Build()
}

package site

import (
	"context"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
)

// Status summarizes the site.
type Status struct {
	Document    string                  `json:"document"`
	Collections map[content.Kind]int    `json:"collections"`
	Anchors     map[htmlsync.Anchor]int `json:"anchors,omitempty"`
	AnchorError string                  `json:"anchor_error,omitempty"`
	Git         string                  `json:"git,omitempty"`
	GitError    string                  `json:"git_error,omitempty"`
	Activity    *eventstore.Activity    `json:"activity,omitempty"`
}

// Status reports collection sizes, how many elements match each anchor, the
// working tree status and recorded activity. Problems with the document or
// the repository are reported in the result instead of failing the call.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	st := Status{Document: m.document, Collections: make(map[content.Kind]int)}
	for _, kind := range content.Kinds() {
		seq, err := m.List(ctx, kind)
		if err != nil {
			return st, err
		}
		st.Collections[kind] = len(seq)
	}

	if anchors, err := m.sync.InspectFile(m.document); err != nil {
		st.AnchorError = message(err)
	} else {
		st.Anchors = anchors
	}

	if m.publisher != nil {
		if out, err := m.publisher.Status(ctx); err != nil {
			st.GitError = message(err)
		} else {
			st.Git = out
		}
	}

	if m.history != nil {
		a := m.history.Activity()
		st.Activity = &a
	}
	return st, nil
}

// History returns up to limit recorded events, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]eventstore.Entry, error) {
	if m.history == nil {
		return nil, errors.ConfigError("history is not configured").Build()
	}
	return m.history.Recent(ctx, limit)
}

func message(err error) string {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.Message()
	}
	return err.Error()
}

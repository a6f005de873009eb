// Package responses defines the JSON bodies returned by the sitekeeper HTTP API.
package responses

import (
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/publish"
)

// MutationResponse is returned by record add, update and delete.
type MutationResponse struct {
	Success     bool            `json:"success"`
	OperationID string          `json:"operation_id"`
	Record      content.Record  `json:"record"`
	Sync        htmlsync.Report `json:"sync"`
	Partial     bool            `json:"partial"`
	Warnings    []string        `json:"warnings,omitempty"`
	Publish     *publish.Result `json:"publish,omitempty"`
}

// SyncResponse is returned by the resync endpoints.
type SyncResponse struct {
	Success bool              `json:"success"`
	Reports []htmlsync.Report `json:"reports"`
	Partial bool              `json:"partial"`
}

// PublishResponse is returned by a publish request.
type PublishResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Result  publish.Result `json:"result"`
}

// GitStatusResponse carries the working tree status.
type GitStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// HistoryResponse lists recorded events, newest first.
type HistoryResponse struct {
	Success bool               `json:"success"`
	Events  []eventstore.Entry `json:"events"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    float64   `json:"uptime_seconds"`
	Timestamp time.Time `json:"timestamp"`
}

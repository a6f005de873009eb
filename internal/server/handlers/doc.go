// Package handlers contains HTTP handlers for the sitekeeper API.
//
// This package provides handlers for:
//   - Collection CRUD under /api/{kind}
//   - Document resync
//   - Publishing and working tree status under /git
//   - History and health endpoints
//
// Errors are written through the foundation/errors HTTP adapter so every
// failure carries its category as the response code.
package handlers

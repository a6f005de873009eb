// Package publish stages, commits and pushes the site's working tree.
//
// The Publisher drives a small state machine (idle, verifying, staging,
// committing, pushing, done) over a Repository backend. Two backends exist:
// one runs the git binary with explicit argument lists, the other uses
// go-git. Failures are classified into a fixed set of kinds so callers can
// tell a missing remote from rejected credentials or an unreachable host.
package publish

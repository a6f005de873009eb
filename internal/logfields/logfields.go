package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyKind       = "kind"
	KeyRecordID   = "record_id"
	KeyAnchor     = "anchor"
	KeyOutcome    = "outcome"
	KeyFailure    = "failure"
	KeyBranch     = "branch"
	KeyRemote     = "remote"
	KeyPath       = "path"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func RecordID(id int) slog.Attr       { return slog.Int(KeyRecordID, id) }
func Anchor(name string) slog.Attr    { return slog.String(KeyAnchor, name) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Failure(f string) slog.Attr      { return slog.String(KeyFailure, f) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Remote(r string) slog.Attr       { return slog.String(KeyRemote, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

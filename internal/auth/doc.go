// Package auth implements the session-reuse login workflow.
//
// A persisted session is restored and verified with an authenticated probe;
// a rejected session triggers exactly one password retry with preserved
// device identifiers before the fresh-login path runs. Exhausting every path
// is an explicit, fatal authentication error.
package auth

// Package notifications delivers run outcomes via pluggable notifiers.
//
// The default implementation publishes to ntfy using the configured topic
// and gracefully degrades to a no-op when no topic is set. The pipeline's
// summary email is not handled here; see internal/mailer.
package notifications

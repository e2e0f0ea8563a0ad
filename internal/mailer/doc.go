// Package mailer composes and delivers the daily summary email over an
// authenticated, implicit-TLS SMTP session.
package mailer

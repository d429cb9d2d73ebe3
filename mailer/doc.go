// Package mailer implements interfaces.Mailer.
//
// SMTPMailer delivers plain-text UTF-8 mail over SMTP with STARTTLS through
// github.com/wneessen/go-mail. The SMTP password comes from a PasswordSource:
// either a static value from configuration or a HashiCorp Vault KV v2 secret,
// read on every send so rotated credentials take effect without a restart.
//
// LogMailer writes messages to the log instead of sending them and is meant
// for local development only. Recorder captures messages in memory for tests.
package mailer

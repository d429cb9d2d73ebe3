// Package main (cmd/lawsign-server) runs the lawyer and client signing bots
// behind one HTTP API.
//
// The server wires the document store (SQLite or PostgreSQL, selected by the
// --database DSN), redundant revision storage (file, S3 and IPFS backends),
// the code mailer (SMTP, with the password optionally read from Vault) and
// the stamp compositor. Lawyers are admitted from the --roster JSON file:
//
//	[{"chat_id": 1001, "full_name": "Anna Smirnova", "email": "anna@lawfirm.example"}]
//
// Without --smtp-host the codes are written to the log instead of being mailed,
// which is only suitable for development.
//
// The server implements graceful shutdown on SIGINT/SIGTERM and serves
// liveness, readiness and drain endpoints, Prometheus metrics on
// --metrics-addr and optional pprof handlers.
//
// Example usage:
//
//	lawsign-server --listen-addr=0.0.0.0:8080 \
//	    --database=postgres://lawsign:secret@db/lawsign \
//	    --storage=file:///var/lib/lawsign/uploads \
//	    --storage='s3://lawsign-revisions/prod/?region=eu-central-1' \
//	    --roster=/etc/lawsign/lawyers.json \
//	    --smtp-host=smtp.example.com --smtp-user=bot@example.com \
//	    --vault-addr=https://vault:8200 --vault-path=lawsign/smtp
package main

// Package storage keeps PDF revisions under string keys with pluggable backends.
//
// Every signature produces a new revision with a new key; existing revisions
// are never rewritten. The document row always points at the latest key.
//
//   - FileBackend: a local upload directory, written through temp file and rename
//   - S3Backend: Amazon S3 or a compatible service (MinIO, Ceph)
//   - IPFSBackend: the mutable file system of an IPFS node
//   - MultiRevisionBackend: writes to all available backends, reads from the first hit
//
// # Location URIs
//
// Backends are configured with URIs of the form
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// for example
//
//	file:///var/lib/lawsign/uploads
//	file://./uploads
//	s3://ACCESS:SECRET@contracts/revisions?region=eu-central-1&endpoint=http://minio:9000&path_style=true
//	ipfs://127.0.0.1:5001/lawsign?timeout=30s
//
// # Keys
//
// Keys are slash-separated relative paths. Keys that are empty, absolute or
// that climb above the backend root are rejected with
// interfaces.ErrInvalidRevisionKey before any backend is touched.
//
// A missing revision is reported as interfaces.ErrRevisionNotFound by every
// backend; the multi-backend reports it only if every reachable backend did.
//
// # Usage
//
//	backend, err := storage.BackendFromURIs([]string{"file:///var/lib/lawsign/uploads"}, logger)
//	if err != nil {
//		return err
//	}
//	if err := backend.Store(ctx, "42_1a2b3c4d_contract.pdf", pdf); err != nil {
//		return err
//	}
package storage

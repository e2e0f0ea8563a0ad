// Package storage publishes the merged daily video to S3-compatible object
// storage as a private object and mints 24-hour presigned retrieval URLs.
package storage

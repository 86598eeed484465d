package storage

import "io"

// BlobStore holds question media (images, audio) referenced by
// Question.MediaRef.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}

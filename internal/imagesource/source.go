package imagesource

import (
	"fmt"
	"io"
)

type Kind string

const (
	KindRemoteURL    Kind = "remote_url"
	KindLocalPath    Kind = "local_path"
	KindByteStream   Kind = "byte_stream"
	KindBucketObject Kind = "bucket_object"
)

// Source identifies where an image comes from. Exactly one origin is set,
// fixed by the constructor used.
type Source struct {
	kind   Kind
	url    string
	path   string
	reader io.Reader
	object string
}

func FromURL(url string) Source {
	return Source{kind: KindRemoteURL, url: url}
}

func FromPath(path string) Source {
	return Source{kind: KindLocalPath, path: path}
}

// FromReader wraps an already-open stream. The stream is drained by Load
// and cannot be reused.
func FromReader(r io.Reader) Source {
	return Source{kind: KindByteStream, reader: r}
}

func FromBucket(object string) Source {
	return Source{kind: KindBucketObject, object: object}
}

func (s Source) Kind() Kind {
	return s.kind
}

func (s Source) Describe() string {
	switch s.kind {
	case KindRemoteURL:
		return s.url
	case KindLocalPath:
		return s.path
	case KindByteStream:
		return "stream"
	case KindBucketObject:
		return fmt.Sprintf("bucket:%s", s.object)
	default:
		return "unknown"
	}
}

// Image is the acquired payload, ready for transmission downstream. MIME is
// sniffed from the payload bytes and carried for diagnostics only.
type Image struct {
	Data []byte
	MIME string
}

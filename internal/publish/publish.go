// Package publish writes rendered output to stdout, a local file or S3.
//
// A target is a plain path, "-" (or empty) for stdout, or an
// s3://bucket/key URL. S3 credentials come from the default AWS
// configuration chain.
package publish

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/figura-dev/figura/internal/errors"
)

// Target kinds.
const (
	KindStdout = "stdout"
	KindFile   = "file"
	KindS3     = "s3"
)

// Target is a parsed output target.
type Target struct {
	Kind   string
	Path   string
	Bucket string
	Key    string
}

// String returns the target in the form ParseTarget accepts.
func (t Target) String() string {
	switch t.Kind {
	case KindS3:
		return "s3://" + t.Bucket + "/" + t.Key
	case KindFile:
		return t.Path
	default:
		return "-"
	}
}

// ParseTarget parses s. Invalid S3 URLs return F201.
func ParseTarget(s string) (Target, error) {
	if s == "" || s == "-" {
		return Target{Kind: KindStdout}, nil
	}
	if !strings.HasPrefix(s, "s3://") {
		return Target{Kind: KindFile, Path: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return Target{}, invalidTarget(s, err.Error())
	}
	key := strings.TrimPrefix(u.Path, "/")
	switch {
	case u.Host == "":
		return Target{}, invalidTarget(s, "missing bucket")
	case key == "" || strings.HasSuffix(key, "/"):
		return Target{}, invalidTarget(s, "missing object key")
	}
	return Target{Kind: KindS3, Bucket: u.Host, Key: key}, nil
}

func invalidTarget(s, reason string) error {
	return errors.New("F201").
		WithDetailf("%s: %s", s, reason).
		WithSuggestion("Use a file path or s3://bucket/key")
}

// Publisher writes one document.
type Publisher interface {
	Publish(ctx context.Context, data []byte, contentType string) error
}

// WriterStore writes to an io.Writer.
type WriterStore struct {
	W io.Writer
}

// Publish writes data to the writer.
func (s WriterStore) Publish(_ context.Context, data []byte, _ string) error {
	if _, err := s.W.Write(data); err != nil {
		return errors.New("F200").Wrap(err)
	}
	return nil
}

// FileStore writes to a local file, creating parent directories.
type FileStore struct {
	Path string
}

// Publish writes data to a temporary file next to the target and renames
// it into place.
func (s FileStore) Publish(_ context.Context, data []byte, _ string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("F200").WithDetail(s.Path).Wrap(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return errors.New("F200").WithDetail(s.Path).Wrap(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.New("F200").WithDetail(s.Path).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New("F200").WithDetail(s.Path).Wrap(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.New("F200").WithDetail(s.Path).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return errors.New("F200").WithDetail(s.Path).Wrap(err)
	}
	return nil
}

// Options configures Open.
type Options struct {
	// Stdout receives output for stdout targets. Defaults to os.Stdout.
	Stdout io.Writer

	// S3 is the client used for s3:// targets. When nil, one is built
	// from the default AWS configuration.
	S3 PutObjectAPI
}

// Open returns the publisher for target.
func Open(ctx context.Context, target string, opts Options) (Publisher, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case KindFile:
		return FileStore{Path: t.Path}, nil
	case KindS3:
		client := opts.S3
		if client == nil {
			client, err = NewS3Client(ctx)
			if err != nil {
				return nil, err
			}
		}
		return NewS3Store(client, t.Bucket, t.Key), nil
	default:
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		return WriterStore{W: w}, nil
	}
}

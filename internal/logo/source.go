package logo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/BruksfildServices01/clientflow/internal/config"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
)

// Source yields the original logo bytes and its file name.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, string, error)
}

type FileSource struct {
	Path string
}

func (s FileSource) Open(context.Context) (io.ReadCloser, string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, "", fmt.Errorf("open logo: %w", err)
	}
	return f, filepath.Base(s.Path), nil
}

// S3API is the subset of *s3.Client used here.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	Client S3API
	Bucket string
	Key    string
}

func (s S3Source) Open(ctx context.Context) (io.ReadCloser, string, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return out.Body, path.Base(s.Key), nil
}

// NewS3Client builds an S3 client from config. A custom endpoint (MinIO and
// friends) switches to path-style addressing.
func NewS3Client(cfg *config.Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.S3Region,
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// ParseSource accepts a local path or an s3://bucket/key reference. The S3
// client is only built when needed.
func ParseSource(ref string, newS3 func() S3API) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, httperr.ErrBusinessMsg("logo_missing", "Informe o arquivo da logo")
	}

	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return nil, httperr.ErrBusinessMsg("logo_invalid_ref", "Referência S3 inválida: use s3://bucket/chave")
		}
		return S3Source{Client: newS3(), Bucket: bucket, Key: key}, nil
	}
	return FileSource{Path: ref}, nil
}

// ReaderSource wraps an already open file, such as a multipart part.
type ReaderSource struct {
	Name   string
	Reader io.ReadCloser
}

func (s ReaderSource) Open(context.Context) (io.ReadCloser, string, error) {
	return s.Reader, s.Name, nil
}

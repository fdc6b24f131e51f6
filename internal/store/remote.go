package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fernet/fernet-go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds everything needed to reach the bucket.
type S3Config struct {
	Endpoint  string // "s3.amazonaws.com" for AWS
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store syncs local dataset files with an S3 bucket. Objects are stored
// encrypted as Fernet tokens; the object key is the local file's base name.
type S3Store struct {
	client  *minio.Client
	bucket  string
	dataDir string
	key     *fernet.Key
	log     *slog.Logger
}

// NewS3Store connects to the bucket and prepares the encryption key.
func NewS3Store(cfg S3Config, dataDir, encryptionSecret string, log *slog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is empty")
	}

	key, err := DeriveKey(encryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}
	return &S3Store{client: client, bucket: cfg.Bucket, dataDir: dataDir, key: key, log: log}, nil
}

// Upload encrypts the named local file and puts it into the bucket under
// the same name.
func (s *S3Store) Upload(ctx context.Context, name string) error {
	localPath := filepath.Join(s.dataDir, name)
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}

	token, err := Encrypt(data, s.key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(token), int64(len(token)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}

	s.log.Debug("uploaded object", "bucket", s.bucket, "key", name, "bytes", len(token))
	return nil
}

// Download fetches and decrypts the named object into the data dir.
// It reports false without error when the object does not exist.
func (s *S3Store) Download(ctx context.Context, name string) (bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", name, err)
	}
	defer obj.Close()

	token, err := io.ReadAll(obj)
	if err != nil {
		// minio defers most errors to the first read.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}

	data, err := Decrypt(token, s.key)
	if err != nil {
		return false, fmt.Errorf("object %s: %w", name, err)
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return false, fmt.Errorf("create data dir: %w", err)
	}
	localPath := filepath.Join(s.dataDir, name)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", localPath, err)
	}

	s.log.Debug("downloaded object", "bucket", s.bucket, "key", name, "bytes", len(data))
	return true, nil
}

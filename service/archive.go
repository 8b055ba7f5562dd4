package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aliintelligence/document-filler/config"
)

// ArchiveService keeps copies of generated and signed contract PDFs in
// object storage.
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewArchiveService(cfg *config.MinioConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// FilledObject is the object name of a document's filled, unsigned copy.
func FilledObject(documentID string) string {
	return "filled/" + documentID + ".pdf"
}

// SignedObject is the object name of a document's completed, signed copy.
func SignedObject(documentID string) string {
	return "signed/" + documentID + ".pdf"
}

// ArchiveFilled stores the filled, unsigned PDF for a document.
func (s *ArchiveService) ArchiveFilled(ctx context.Context, documentID string, pdf []byte) (string, error) {
	objectName := FilledObject(documentID)
	return objectName, s.upload(ctx, objectName, pdf)
}

// ArchiveSigned stores the completed, signed PDF for a document.
func (s *ArchiveService) ArchiveSigned(ctx context.Context, documentID string, pdf []byte) (string, error) {
	objectName := SignedObject(documentID)
	return objectName, s.upload(ctx, objectName, pdf)
}

func (s *ArchiveService) upload(ctx context.Context, objectName string, pdf []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// Fetch reads an archived PDF back.
func (s *ArchiveService) Fetch(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return data, nil
}

// PresignedURL generates a presigned URL for the object with expiration
func (s *ArchiveService) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	// S3 presigned URLs cannot outlive 7 days
	if expiry > 7*24*time.Hour {
		expiry = 7 * 24 * time.Hour
	}
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// Delete removes an archived PDF.
func (s *ArchiveService) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

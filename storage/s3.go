package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"portfolio/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"
)

type S3Storage struct {
	Bucket    string
	Folder    string
	PublicURL string
	s3Client  s3iface.S3API
	uploader  *s3manager.Uploader
	log       zerolog.Logger
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	awsConfig := aws.NewConfig().
		WithRegion(cfg.S3Region).
		WithCredentials(credentials.NewStaticCredentials(cfg.S3Key, cfg.S3Secret, "")).
		WithS3ForcePathStyle(cfg.S3UsePathStyle)
	if cfg.S3Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(cfg.S3Endpoint)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return NewS3StorageWithClient(s3.New(sess), cfg.S3Bucket, cfg.MediaFolder, cfg.S3PublicURL, log), nil
}

func NewS3StorageWithClient(client s3iface.S3API, bucket, folder, publicURL string, log zerolog.Logger) *S3Storage {
	return &S3Storage{
		Bucket:    bucket,
		Folder:    folder,
		PublicURL: strings.TrimSuffix(publicURL, "/"),
		s3Client:  client,
		uploader:  s3manager.NewUploaderWithClient(client),
		log:       log.With().Str("component", "s3-storage").Str("bucket", bucket).Logger(),
	}
}

func (s *S3Storage) Store(ctx context.Context, data []byte, contentType string) (Object, error) {
	storageID := NewStorageID(s.Folder, contentType)
	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(storageID),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		return Object{}, transient("store", err)
	}
	url := result.Location
	if s.PublicURL != "" {
		url = s.PublicURL + "/" + storageID
	}
	return Object{URL: url, StorageID: storageID}, nil
}

// Remove deletes the object. S3 does not report missing keys on delete, so existence is checked first.
func (s *S3Storage) Remove(ctx context.Context, storageID string) error {
	_, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(storageID),
	})
	if isS3NotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return transient("remove", err)
	}
	_, err = s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(storageID),
	})
	return transient("remove", err)
}

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aErr awserr.Error
	if errors.As(err, &aErr) {
		switch aErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

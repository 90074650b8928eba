package storage

import (
	"bytes"
	"context"
	"strings"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/pkg/errors"
)

type s3Impl struct {
	client        *s3.Client
	bucket        string
	publicUrlBase string
}

func NewS3Storage(ctx context.Context) (ObjectStorage, error) {
	cfg := config.Get().Clients.Storage
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is not configured")
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	return &s3Impl{
		client:        s3.NewFromConfig(awsCfg),
		bucket:        cfg.Bucket,
		publicUrlBase: strings.TrimSuffix(cfg.PublicUrlBase, "/"),
	}, nil
}

func (s *s3Impl) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload %v", key)
	}
	return s.publicUrlBase + "/" + key, nil
}

func (s *s3Impl) Delete(ctx context.Context, url string) error {
	if !s.Owns(url) {
		return errors.Errorf("refusing to delete unowned url %v", url)
	}
	key := strings.TrimPrefix(strings.TrimPrefix(url, s.publicUrlBase), "/")
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete %v", key)
	}
	return nil
}

func (s *s3Impl) Owns(url string) bool {
	return s.publicUrlBase != "" && strings.HasPrefix(url, s.publicUrlBase+"/")
}

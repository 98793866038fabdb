package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streamfi/streamfi/internal/common"
	sc "github.com/streamfi/streamfi/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for testing the AWS SDK wiring.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Media kinds accepted for presigned uploads.
const (
	MediaKindAvatar    = "avatar"
	MediaKindThumbnail = "thumbnail"
)

// MediaService hands out presigned PUT/GET URLs against the S3-compatible
// media store, so avatar and thumbnail bytes never pass through the API.
type MediaService struct {
	config *sc.Config
}

func NewMediaService(cfg *sc.Config) *MediaService {
	return &MediaService{config: cfg}
}

// storageKey partitions uploads by kind and date.
func storageKey(kind string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%v", kind, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *MediaService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutURL returns a storage key and a 15-minute PUT URL for a new
// media object of the given kind.
func (s *MediaService) GetPresignedPutURL(ctx context.Context, kind string) (string, string, error) {
	if kind != MediaKindAvatar && kind != MediaKindThumbnail {
		return "", "", fmt.Errorf("%w: unknown media kind %q", common.ErrorValidation, kind)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := storageKey(kind)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetURL returns a 15-minute GET URL for an existing media key.
func (s *MediaService) GetPresignedGetURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key is required", common.ErrorValidation)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

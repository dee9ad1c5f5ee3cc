package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkrasnovs/microblog/internal/common"
	sc "github.com/dkrasnovs/microblog/internal/config"
	"github.com/dkrasnovs/microblog/internal/models"
	"github.com/dkrasnovs/microblog/internal/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const micropostMaxLen = 140

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

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

// MicropostService creates and lists posts and manages their optional image
// attachments in S3-compatible object storage via presigned URLs.
type MicropostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

// NewMicropostService constructs a MicropostService.
func NewMicropostService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *MicropostService {
	return &MicropostService{
		db:          db,
		repomanager: m,
		config:      config,
	}
}

// RandomImageKey returns a fresh object-storage key for an image upload.
func RandomImageKey() string {
	d := time.Now()
	return fmt.Sprintf("microposts/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Create validates the content and inserts the post. imageKey may be empty
// or a key previously issued by ImageUploadURL.
func (s *MicropostService) Create(ctx context.Context, userID, content, imageKey string) (*models.Micropost, error) {
	if verr := validateMicropost(content); verr != nil {
		return nil, verr
	}
	repo := s.repomanager.Microposts(s.db)
	return repo.Create(ctx, &models.Micropost{UserID: userID, Content: content, ImageKey: imageKey})
}

// ByUser returns the user's own posts, newest first.
func (s *MicropostService) ByUser(ctx context.Context, userID string, limit int) ([]models.Micropost, error) {
	repo := s.repomanager.Microposts(s.db)
	return repo.ByUser(ctx, userID, limit)
}

// Delete removes a post owned by userID.
func (s *MicropostService) Delete(ctx context.Context, id, userID string) error {
	repo := s.repomanager.Microposts(s.db)
	return repo.Delete(ctx, id, userID)
}

func validateMicropost(content string) *common.ValidationError {
	v := &common.ValidationError{}
	if strings.TrimSpace(content) == "" {
		v.Add("content", "can't be blank")
	} else if utf8.RuneCountInString(content) > micropostMaxLen {
		v.Add("content", fmt.Sprintf("is too long (maximum is %d characters)", micropostMaxLen))
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

func (s *MicropostService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
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

// ImageUploadURL issues a storage key and a presigned PUT URL the client can
// upload an image to before creating the post.
func (s *MicropostService) ImageUploadURL(ctx context.Context) (string, string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := RandomImageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// ImageDownloadURL returns a presigned GET URL for a stored image key.
func (s *MicropostService) ImageDownloadURL(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

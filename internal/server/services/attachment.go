package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dayli-app/api/internal/common"
	sc "github.com/dayli-app/api/internal/server/config"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/repositories/repomanager"
)

// Seams for tests; the AWS SDK clients are not mockable by interface here.
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

const presignedURLExpiry = 15 * time.Minute

// AttachmentService tracks metadata for encrypted binary payloads attached
// to posts. The payloads themselves move between client and object storage
// via presigned URLs, never through this server.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: m,
		config:      config,
	}
}

// RandomStorageKey returns a fresh object key, partitioned by date so bucket
// listings stay manageable.
func RandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("attachments/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
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

func (s *AttachmentService) presignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignedURLExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *AttachmentService) presignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignedURLExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// AttachmentUpload pairs a created attachment record with the URL the client
// must PUT the ciphertext to.
type AttachmentUpload struct {
	Attachment *models.Attachment
	UploadURL  string
}

// CreateUpload registers a pending attachment on one of the account's posts
// and returns a presigned PUT URL for the ciphertext.
func (s *AttachmentService) CreateUpload(ctx context.Context, accountID, postDate, nonce string) (*AttachmentUpload, error) {
	if nonce == "" {
		return nil, fmt.Errorf("%w: attachment requires a nonce", common.ErrorValidation)
	}

	post, err := s.repomanager.Posts(s.db).GetByAccountAndDate(ctx, accountID, postDate)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	key := RandomStorageKey()
	url, err := s.presignedPutURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %v", err)
	}

	att, err := s.repomanager.Attachments(s.db).Create(ctx, &models.Attachment{
		PostID:       post.ID,
		AccountID:    accountID,
		StorageKey:   key,
		Nonce:        nonce,
		UploadStatus: models.AttachmentUploadPending,
	})
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &AttachmentUpload{Attachment: att, UploadURL: url}, nil
}

// MarkUploaded records that the client finished uploading the ciphertext.
func (s *AttachmentService) MarkUploaded(ctx context.Context, accountID, id string) error {
	err := s.repomanager.Attachments(s.db).MarkCompleted(ctx, accountID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// DownloadURL returns a presigned GET URL for one of the account's
// attachments.
func (s *AttachmentService) DownloadURL(ctx context.Context, accountID, id string) (string, error) {
	att, err := s.repomanager.Attachments(s.db).GetByID(ctx, accountID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}

	url, err := s.presignedGetURL(ctx, att.StorageKey)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %v", err)
	}
	return url, nil
}

// ListForPost returns the metadata of all attachments on one of the
// account's posts.
func (s *AttachmentService) ListForPost(ctx context.Context, accountID, postDate string) ([]*models.Attachment, error) {
	post, err := s.repomanager.Posts(s.db).GetByAccountAndDate(ctx, accountID, postDate)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	list, err := s.repomanager.Attachments(s.db).ListByPost(ctx, accountID, post.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Delete removes the attachment record. The stored object is left for
// lifecycle cleanup in the bucket.
func (s *AttachmentService) Delete(ctx context.Context, accountID, id string) error {
	err := s.repomanager.Attachments(s.db).Delete(ctx, accountID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
)

const (
	MaxImageSize       = 5 * 1024 * 1024 // 5MB
	MaxImagesPerUpload = 10
	LocalUploadsPath   = "/uploads"
)

var (
	ErrFileTooLarge  = errors.New("file too large")
	ErrFileType      = errors.New("file type not allowed")
	ErrTooManyFiles  = errors.New("too many files")
	allowedImageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// StorageService stores uploaded images in S3 when AWS credentials are
// configured and under the server's upload directory otherwise.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
	now      func() time.Time
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config, now: time.Now}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
		now:      time.Now,
	}, nil
}

// UploadImage validates and stores one image under folder.
func (s *StorageService) UploadImage(ctx context.Context, header *multipart.FileHeader, folder string) (*models.Image, error) {
	if header.Size > MaxImageSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, header.Filename, MaxImageSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isAllowedImageExt(ext) {
		return nil, fmt.Errorf("%w: %s", ErrFileType, ext)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(fileBytes) > MaxImageSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, header.Filename, MaxImageSize)
	}

	contentType := http.DetectContentType(fileBytes)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content is %s", ErrFileType, contentType)
	}

	key := s.generateKey(ext, folder)
	var url string
	if s.s3Client != nil {
		url, err = s.uploadToS3(ctx, fileBytes, key, contentType)
	} else {
		url, err = s.uploadToLocal(fileBytes, key)
	}
	if err != nil {
		return nil, err
	}

	return &models.Image{PublicID: key, URL: url}, nil
}

// UploadImages stores every file or none of the invalid ones; files stored
// before a failure are removed again.
func (s *StorageService) UploadImages(ctx context.Context, headers []*multipart.FileHeader, folder string) ([]models.Image, error) {
	if len(headers) > MaxImagesPerUpload {
		return nil, fmt.Errorf("%w: at most %d files per upload", ErrTooManyFiles, MaxImagesPerUpload)
	}

	images := make([]models.Image, 0, len(headers))
	for _, header := range headers {
		image, err := s.UploadImage(ctx, header, folder)
		if err != nil {
			for _, stored := range images {
				if derr := s.DeleteFile(ctx, stored.PublicID); derr != nil {
					logrus.WithError(derr).WithField("key", stored.PublicID).Warn("Failed to remove partial upload")
				}
			}
			return nil, err
		}
		images = append(images, *image)
	}
	return images, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key string) (string, error) {
	target := filepath.Join(s.config.Server.UploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, fileBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path.Join(LocalUploadsPath, key), nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		err := os.Remove(filepath.Join(s.config.Server.UploadDir, filepath.FromSlash(key)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *StorageService) generateKey(ext, folder string) string {
	timestamp := s.now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], ext)

	if folder != "" {
		return path.Join(folder, filename)
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func isAllowedImageExt(ext string) bool {
	for _, allowed := range allowedImageExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/marketplace-backend/internal/config"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	deletes []string
	failOn  int
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	if f.failOn > 0 && len(f.puts) == f.failOn {
		return nil, errors.New("bucket unavailable")
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type upload struct {
	name    string
	content []byte
}

func fileHeaders(t *testing.T, files ...upload) []*multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile("images", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(MaxImageSize * 2)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["images"]
}

func TestUploadImageLocal(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewStorageService(&config.Config{Server: config.ServerConfig{UploadDir: dir}})
	require.NoError(t, err)

	headers := fileHeaders(t, upload{"shirt.PNG", pngBytes})
	image, err := svc.UploadImage(context.Background(), headers[0], "products")
	require.NoError(t, err)

	assert.Equal(t, "/uploads/"+image.PublicID, image.URL)
	assert.Equal(t, "products", filepath.Dir(image.PublicID))
	stored, err := os.ReadFile(filepath.Join(dir, image.PublicID))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	require.NoError(t, svc.DeleteFile(context.Background(), image.PublicID))
	require.NoError(t, svc.DeleteFile(context.Background(), image.PublicID))
}

func TestUploadImageValidation(t *testing.T) {
	svc, err := NewStorageService(&config.Config{Server: config.ServerConfig{UploadDir: t.TempDir()}})
	require.NoError(t, err)
	ctx := context.Background()

	headers := fileHeaders(t,
		upload{"notes.txt", []byte("hello")},
		upload{"fake.jpg", []byte("definitely not a jpeg")},
		upload{"huge.png", append(pngBytes, make([]byte, MaxImageSize)...)},
	)

	_, err = svc.UploadImage(ctx, headers[0], "products")
	assert.ErrorIs(t, err, ErrFileType)
	_, err = svc.UploadImage(ctx, headers[1], "products")
	assert.ErrorIs(t, err, ErrFileType)
	_, err = svc.UploadImage(ctx, headers[2], "products")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	var many []upload
	for i := 0; i <= MaxImagesPerUpload; i++ {
		many = append(many, upload{"a.png", pngBytes})
	}
	_, err = svc.UploadImages(ctx, fileHeaders(t, many...), "products")
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestUploadImagesToS3RemovesPartialUploads(t *testing.T) {
	fake := &fakeS3{failOn: 3}
	svc := &StorageService{
		s3Client: fake,
		config:   &config.Config{AWS: config.AWSConfig{S3Bucket: "assets", Region: "us-east-1"}},
		now:      func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
	ctx := context.Background()

	images, err := svc.UploadImages(ctx, fileHeaders(t, upload{"a.png", pngBytes}, upload{"b.png", pngBytes}), "vendors")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Contains(t, images[0].URL, "https://assets.s3.us-east-1.amazonaws.com/vendors/20260501_")
	assert.Equal(t, "image/png", aws.StringValue(fake.puts[0].ContentType))
	assert.Equal(t, "public-read", aws.StringValue(fake.puts[0].ACL))

	_, err = svc.UploadImages(ctx, fileHeaders(t, upload{"c.png", pngBytes}, upload{"d.png", pngBytes}), "vendors")
	require.Error(t, err)
	require.Len(t, fake.deletes, 0)

	fake.failOn = 5
	_, err = svc.UploadImages(ctx, fileHeaders(t, upload{"e.png", pngBytes}, upload{"f.png", pngBytes}), "vendors")
	require.Error(t, err)
	assert.Equal(t, []string{aws.StringValue(fake.puts[3].Key)}, fake.deletes)
}

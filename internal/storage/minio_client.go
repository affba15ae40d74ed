package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"approvalCPT/internal/config"
)

type Storage interface {
	UploadImage(ctx context.Context, postID string, fileName string, file io.Reader, size int64) (string, string, error)
	DeleteImage(ctx context.Context, objectName string) error
	UploadReport(ctx context.Context, fileName string, data io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, bucket, objectName string) (string, error)
}

type MinIOClient struct {
	client *minio.Client
	config *config.Config
}

func NewMinIOClient(cfg *config.Config) (*MinIOClient, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MinIO: %w", err)
	}

	m := &MinIOClient{client: client, config: cfg}

	for _, bucket := range []string{cfg.MinIO.ImagesBucket, cfg.MinIO.ReportBucket} {
		if err := m.ensureBucket(context.Background(), bucket); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("ошибка проверки бакета %s: %w", bucket, err)
	}
	if !exists {
		err = m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.config.MinIO.Region})
		if err != nil {
			return fmt.Errorf("ошибка создания бакета %s: %w", bucket, err)
		}
	}
	return nil
}

func (m *MinIOClient) UploadImage(ctx context.Context, postID string, fileName string, file io.Reader, size int64) (string, string, error) {
	fileExt := strings.ToLower(filepath.Ext(fileName))
	if fileExt == "" {
		fileExt = ".jpg"
	}

	contentType := mime.TypeByExtension(fileExt)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	objectName := fmt.Sprintf("posts/%s/%d/%02d/%s%s",
		postID,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		fileExt)

	_, err := m.client.PutObject(ctx, m.config.MinIO.ImagesBucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"post-id":           postID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("ошибка загрузки в MinIO: %w", err)
	}

	scheme := "http"
	if m.config.MinIO.UseSSL {
		scheme = "https"
	}
	imageURL := fmt.Sprintf("%s://%s/%s/%s", scheme, m.config.MinIO.Endpoint, m.config.MinIO.ImagesBucket, objectName)

	return objectName, imageURL, nil
}

func (m *MinIOClient) DeleteImage(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.config.MinIO.ImagesBucket, objectName,
		minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("ошибка удаления из MinIO: %w", err)
	}
	return nil
}

// UploadReport кладет сгенерированный CSV в бакет отчетов и возвращает имя объекта.
func (m *MinIOClient) UploadReport(ctx context.Context, fileName string, data io.Reader, size int64) (string, error) {
	objectName := fmt.Sprintf("reports/%d/%02d/%s",
		time.Now().Year(),
		time.Now().Month(),
		fileName)

	_, err := m.client.PutObject(ctx, m.config.MinIO.ReportBucket, objectName, data, size,
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки отчета в MinIO: %w", err)
	}

	return objectName, nil
}

func (m *MinIOClient) PresignedURL(ctx context.Context, bucket, objectName string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition",
		fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(objectName)))

	presigned, err := m.client.PresignedGetObject(ctx, bucket, objectName, m.config.MinIO.URLExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации ссылки на объект: %w", err)
	}

	return presigned.String(), nil
}

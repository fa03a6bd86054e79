package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/config"
)

type MinioAPI struct {
	BaseURL         string
	AccessKeyID     string
	SecretAccessKey string
}

func NewMinioAPI(cfg *config.Config) *MinioAPI {
	return &MinioAPI{
		BaseURL:         cfg.Minio.BaseURL,
		AccessKeyID:     cfg.Minio.AccessKeyID,
		SecretAccessKey: cfg.Minio.SecretAccessKey,
	}
}

func (m *MinioAPI) Enabled() bool {
	return m.BaseURL != ""
}

// UploadDailyLog archives the merged day report as a JSON object, for
// retention beyond the live collection. Callers treat failures as advisory.
func (m *MinioAPI) UploadDailyLog(ctx context.Context, entry *domain.PresenceLogEntry) error {
	minioClient, err := minio.New(m.BaseURL, &minio.Options{
		Creds:  credentials.NewStaticV4(m.AccessKeyID, m.SecretAccessKey, ""),
		Secure: false,
	})
	if err != nil {
		zap.L().Error("new minio", zap.Error(err))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	bucketName := "drape-admin-reports"
	location := "us-east-1"

	newCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = minioClient.MakeBucket(newCtx, bucketName, minio.MakeBucketOptions{Region: location})
	if err != nil {
		exists, errBucketExists := minioClient.BucketExists(newCtx, bucketName)
		if errBucketExists == nil && exists {
			zap.L().Debug(fmt.Sprintf("bucket %s already exists", bucketName))
		} else {
			zap.L().Error(fmt.Sprintf("MakeBucket minio %s", bucketName), zap.Error(err))
			return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
		}
	} else {
		zap.L().Info(fmt.Sprintf("successfully created bucket %s", bucketName))
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		zap.L().Error("Marshal JSON (UploadDailyLog) (MinioAPI)", zap.Error(err))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}

	objectName := "presence-log/" + entry.Date + ".json"
	_, err = minioClient.PutObject(newCtx, bucketName, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		zap.L().Error("minioClient.PutObject (UploadDailyLog) (MinioAPI)", zap.Error(err), zap.String("object", objectName))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	return nil
}

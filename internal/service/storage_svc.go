package service

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
// 安装包放私有桶，下载全部走限时签名 URL
type StorageProvider interface {
	GetSignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// ==================== 配置 ====================

type StorageConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled 是否配置了对象存储
func (c *StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// ==================== S3 实现 ====================

// S3Storage S3 私有桶签名器
type S3Storage struct {
	config  *StorageConfig
	presign *s3.PresignClient
}

// NewS3Storage 创建 S3 存储
func NewS3Storage(cfg *StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		config:  cfg,
		presign: s3.NewPresignClient(client),
	}, nil
}

// GetSignedURL 生成限时下载链接
func (s *S3Storage) GetSignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

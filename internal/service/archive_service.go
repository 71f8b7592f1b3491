package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"learnpath_backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentStore 生成文档归档的存储后端
type DocumentStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64) error
}

// ArchiveService 把每次生成的原始课程文档归档，供审计与事后重解析。
// 归档失败只记日志，不影响路径创建。
type ArchiveService struct {
	store DocumentStore
}

func NewArchiveService(cfg *config.Config) (*ArchiveService, error) {
	var store DocumentStore
	switch cfg.Storage.Type {
	case "minio":
		s, err := newMinioDocumentStore(&cfg.Storage)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		store = &localDocumentStore{basePath: cfg.Storage.LocalPath}
	}
	return &ArchiveService{store: store}, nil
}

func (s *ArchiveService) SaveDocument(ctx context.Context, pathID, content string) error {
	key := fmt.Sprintf("documents/%s/%s.md", time.Now().Format("2006-01-02"), pathID)
	reader := strings.NewReader(content)
	return s.store.Put(ctx, key, reader, int64(len(content)))
}

type localDocumentStore struct {
	basePath string
}

func (p *localDocumentStore) Put(ctx context.Context, key string, reader io.Reader, size int64) error {
	dst := filepath.Join(p.basePath, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, reader)
	return err
}

type minioDocumentStore struct {
	config *config.StorageConfig
	client *minio.Client
}

func newMinioDocumentStore(cfg *config.StorageConfig) (*minioDocumentStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &minioDocumentStore{config: cfg, client: client}, nil
}

func (p *minioDocumentStore) Put(ctx context.Context, key string, reader io.Reader, size int64) error {
	_, err := p.client.PutObject(ctx, p.config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	return err
}

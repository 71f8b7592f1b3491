package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const prereqCacheTTL = 24 * time.Hour

type PrerequisiteService struct {
	Generator DocumentGenerator
	Redis     *redis.Client
}

func NewPrerequisiteService(generator DocumentGenerator, rdb *redis.Client) *PrerequisiteService {
	return &PrerequisiteService{Generator: generator, Redis: rdb}
}

// IdentifyPrerequisites 解析生成的先修文档；解析不出任何条目时退回
// 等级分层模板。非空 topic 输入永不失败、至少返回一条。
func (s *PrerequisiteService) IdentifyPrerequisites(ctx context.Context, topic string, level model.PathLevel) ([]model.Prerequisite, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, util.ErrEmptyTopic
	}
	if !level.Valid() {
		return nil, util.ErrInvalidLevel
	}

	if cached := s.fromCache(ctx, topic, level); cached != nil {
		return cached, nil
	}

	var prereqs []model.Prerequisite
	raw, err := s.Generator.PrerequisiteList(ctx, topic, level)
	if err == nil {
		prereqs = ParseDocument(raw, topic, level).Prerequisites
	} else {
		logger.Log.Warn("prerequisite generation failed, using tiered fallback",
			zap.String("topic", topic), zap.Error(err))
	}
	if len(prereqs) == 0 {
		prereqs = tieredPrerequisites(topic, level)
	}

	s.toCache(ctx, topic, level, prereqs)
	return prereqs, nil
}

// tieredPrerequisites 等级分层的固定模板
func tieredPrerequisites(topic string, level model.PathLevel) []model.Prerequisite {
	switch level {
	case model.LevelIntermediate:
		return []model.Prerequisite{
			{Topic: fmt.Sprintf("Fundamentals of %s", topic), Importance: model.ImportanceRequired},
			{Topic: fmt.Sprintf("Practical applications of %s", topic), Importance: model.ImportanceRecommended},
		}
	case model.LevelAdvanced:
		return []model.Prerequisite{
			{Topic: fmt.Sprintf("Advanced concepts in %s", topic), Importance: model.ImportanceRequired},
			{Topic: fmt.Sprintf("Implementation experience with %s", topic), Importance: model.ImportanceRequired},
			{Topic: fmt.Sprintf("Best practices around %s", topic), Importance: model.ImportanceRecommended},
		}
	default:
		return []model.Prerequisite{
			{Topic: fmt.Sprintf("Fundamentals of %s", topic), Importance: model.ImportanceRequired},
		}
	}
}

func prereqCacheKey(topic string, level model.PathLevel) string {
	return fmt.Sprintf("prereq:%s:%s", strings.ToLower(topic), level)
}

// 缓存只是加速，redis 不可用时静默跳过
func (s *PrerequisiteService) fromCache(ctx context.Context, topic string, level model.PathLevel) []model.Prerequisite {
	if s.Redis == nil {
		return nil
	}
	val, err := s.Redis.Get(ctx, prereqCacheKey(topic, level)).Result()
	if err != nil {
		return nil
	}
	var prereqs []model.Prerequisite
	if err := json.Unmarshal([]byte(val), &prereqs); err != nil {
		return nil
	}
	return prereqs
}

func (s *PrerequisiteService) toCache(ctx context.Context, topic string, level model.PathLevel, prereqs []model.Prerequisite) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(prereqs)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, prereqCacheKey(topic, level), raw, prereqCacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache prerequisites", zap.Error(err))
	}
}

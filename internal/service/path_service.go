package service

import (
	"context"
	"strings"
	"time"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"

	"go.uber.org/zap"
)

// PathRepository 路径聚合仓储。gorm 实现之外另有内存实现（测试/降依赖）。
type PathRepository interface {
	Create(path *model.LearningPath) error
	FindByID(id string) (*model.LearningPath, error)
	ListByOwner(ownerID uint) ([]model.LearningPath, error)
	Save(path *model.LearningPath) error
}

type PathService struct {
	Repo      PathRepository
	Generator DocumentGenerator
	Archive   *ArchiveService
	locks     *pathLocks
}

func NewPathService(repo PathRepository, generator DocumentGenerator, archive *ArchiveService) *PathService {
	return &PathService{
		Repo:      repo,
		Generator: generator,
		Archive:   archive,
		locks:     newPathLocks(),
	}
}

type CreatePathRequest struct {
	Topic      string          `json:"topic" binding:"required"`
	Level      model.PathLevel `json:"level" binding:"required"`
	IsAdaptive *bool           `json:"isAdaptive"`
	IsPublic   bool            `json:"isPublic"`
}

// CreatePath 从一次生成请求构建完整路径：生成文档 → 解析 → 检查点规划 → 持久化。
// 生成与解析的失败都在下游被降级，这里只可能因校验或持久化失败。
func (s *PathService) CreatePath(ctx context.Context, ownerID uint, req CreatePathRequest) (*model.LearningPath, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, util.ErrEmptyTopic
	}
	if !req.Level.Valid() {
		return nil, util.ErrInvalidLevel
	}

	raw, err := s.Generator.Curriculum(ctx, topic, req.Level)
	if err != nil {
		// live 模式自带模板回退，理论上到不了这里；兜底再降一次级
		logger.Log.Warn("curriculum generation failed, using template", zap.Error(err))
		raw, _ = (&TemplateGenerator{}).Curriculum(ctx, topic, req.Level)
	}

	doc := ParseDocument(raw, topic, req.Level)

	isAdaptive := true
	if req.IsAdaptive != nil {
		isAdaptive = *req.IsAdaptive
	}

	path := &model.LearningPath{
		Topic:         topic,
		Level:         req.Level,
		OwnerID:       ownerID,
		Description:   doc.Description,
		Steps:         doc.Steps,
		Prerequisites: doc.Prerequisites,
		Checkpoints:   PlanCheckpoints(doc.Steps),
		Branches:      model.BranchList{},
		Tags:          doc.Tags,
		IsAdaptive:    isAdaptive,
		IsPublic:      req.IsPublic,
	}
	path.SortSteps()

	if err := s.Repo.Create(path); err != nil {
		return nil, err
	}

	if s.Archive != nil {
		go func(id, content string) {
			if err := s.Archive.SaveDocument(context.Background(), id, content); err != nil {
				logger.Log.Warn("failed to archive generated document",
					zap.String("pathId", id), zap.Error(err))
			}
		}(path.ID, raw)
	}

	logger.Log.Info("learning path created",
		zap.String("pathId", path.ID),
		zap.String("topic", topic),
		zap.Int("steps", len(path.Steps)),
		zap.Int("checkpoints", len(path.Checkpoints)))

	return path, nil
}

// GetPath 读取路径。非公开路径仅所有者可见。
func (s *PathService) GetPath(requesterID uint, id string) (*model.LearningPath, error) {
	path, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !path.IsPublic && path.OwnerID != requesterID {
		return nil, util.ErrNotPathOwner
	}
	return path, nil
}

func (s *PathService) ListPaths(ownerID uint) ([]model.LearningPath, error) {
	return s.Repo.ListByOwner(ownerID)
}

type UpdatePathRequest struct {
	Description *string   `json:"description"`
	IsAdaptive  *bool     `json:"isAdaptive"`
	IsPublic    *bool     `json:"isPublic"`
	Tags        *[]string `json:"tags"`
}

func (s *PathService) UpdatePath(requesterID uint, id string, req UpdatePathRequest) (*model.LearningPath, error) {
	var updated *model.LearningPath
	err := s.withPath(requesterID, id, func(path *model.LearningPath) error {
		if req.Description != nil {
			path.Description = *req.Description
		}
		if req.IsAdaptive != nil {
			path.IsAdaptive = *req.IsAdaptive
		}
		if req.IsPublic != nil {
			path.IsPublic = *req.IsPublic
		}
		if req.Tags != nil {
			path.Tags = *req.Tags
		}
		updated = path
		return nil
	})
	return updated, err
}

type CompleteStepResult struct {
	Path                 *model.LearningPath `json:"path"`
	ShouldTakeCheckpoint bool                `json:"shouldTakeCheckpoint"`
	CheckpointID         string              `json:"checkpointId,omitempty"`
}

// CompleteStep 标记步骤完成并刷新进度；若有检查点因此解锁，提示调用方参加。
func (s *PathService) CompleteStep(requesterID uint, pathID, stepID string) (*CompleteStepResult, error) {
	var result *CompleteStepResult
	err := s.withPath(requesterID, pathID, func(path *model.LearningPath) error {
		step := path.FindStep(stepID)
		if step == nil {
			return util.ErrStepNotFound
		}

		if !step.Completed {
			now := time.Now()
			step.Completed = true
			step.CompletedAt = &now
		}
		path.RecomputeProgress(time.Now())

		result = &CompleteStepResult{Path: path}
		if cp := path.NextPendingCheckpoint(); cp != nil {
			result.ShouldTakeCheckpoint = true
			result.CheckpointID = cp.ID
		}
		return nil
	})
	return result, err
}

// ReopenStep 取消步骤完成标记；进度与完成时间按不变量同步回退。
func (s *PathService) ReopenStep(requesterID uint, pathID, stepID string) (*model.LearningPath, error) {
	var updated *model.LearningPath
	err := s.withPath(requesterID, pathID, func(path *model.LearningPath) error {
		step := path.FindStep(stepID)
		if step == nil {
			return util.ErrStepNotFound
		}
		step.Completed = false
		step.CompletedAt = nil
		path.RecomputeProgress(time.Now())
		updated = path
		return nil
	})
	return updated, err
}

// withPath 在路径锁内完成一次 read-modify-write。变更操作一律经由这里，
// 保证同一路径上的并发操作串行执行。
func (s *PathService) withPath(requesterID uint, pathID string, fn func(*model.LearningPath) error) error {
	lock := s.locks.Get(pathID)
	lock.Lock()
	defer lock.Unlock()

	path, err := s.Repo.FindByID(pathID)
	if err != nil {
		return err
	}
	if path.OwnerID != requesterID {
		return util.ErrNotPathOwner
	}

	if err := fn(path); err != nil {
		return err
	}
	return s.Repo.Save(path)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"

	"go.uber.org/zap"
)

type CreateBranchRequest struct {
	Name        string                `json:"name" binding:"required"`
	Condition   model.BranchCondition `json:"condition" binding:"required"`
	Topic       string                `json:"topic"`
	Description string                `json:"description"`
}

// CreateBranch 为路径追加一条命名支线。支线步骤来自生成文档或确定性模板，
// 统一追加在现有最大 order 之后：支线永不移除或重排主线步骤。
func (s *PathService) CreateBranch(ctx context.Context, requesterID uint, pathID string, req CreateBranchRequest) (*model.LearningPath, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, util.ErrEmptyTopic
	}
	if !req.Condition.Valid() {
		return nil, util.ErrInvalidCondition
	}

	// 先做存在性与归属检查，再发起生成调用，避免替未授权请求买单
	path, err := s.Repo.FindByID(pathID)
	if err != nil {
		return nil, err
	}
	if path.OwnerID != requesterID {
		return nil, util.ErrNotPathOwner
	}

	// 默认以支线名作为生成主题。不能拼接 "主题: 支线名"：冒号会被
	// 解析层当作标题分隔符，把每个步骤的标题都截成路径主题
	branchTopic := strings.TrimSpace(req.Topic)
	if branchTopic == "" {
		branchTopic = name
	}

	// 生成在锁外进行：受超时约束的外部调用不应阻塞同一路径的其他操作
	steps, description := s.branchSteps(ctx, branchTopic, name, path.Level)
	if req.Description != "" {
		description = req.Description
	}

	var updated *model.LearningPath
	err = s.withPath(requesterID, pathID, func(path *model.LearningPath) error {
		base := path.MaxStepOrder()
		stepIDs := make([]string, len(steps))
		for i := range steps {
			steps[i].Order = base + float64(i+1)
			stepIDs[i] = steps[i].ID
		}

		path.Steps = append(path.Steps, steps...)
		path.Branches = append(path.Branches, model.Branch{
			ID:          model.GenerateUUID(),
			Name:        name,
			Description: description,
			Condition:   req.Condition,
			StepIDs:     stepIDs,
			CreatedAt:   time.Now(),
		})
		path.SortSteps()
		path.RecomputeProgress(time.Now())
		updated = path
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("branch created",
		zap.String("pathId", pathID),
		zap.String("branch", name),
		zap.Int("steps", len(steps)))

	return updated, nil
}

// branchSteps 支线步骤集合：生成文档可解析时用解析结果，否则退回
// 按等级产出 3/4/5 个模板步骤。
func (s *PathService) branchSteps(ctx context.Context, topic, name string, level model.PathLevel) ([]model.Step, string) {
	raw, err := s.Generator.BranchOutline(ctx, topic, level)
	if err == nil {
		doc := ParseDocument(raw, topic, level)
		if len(doc.Steps) > 0 {
			return doc.Steps, doc.Description
		}
	}

	n := branchStepCount(level)
	steps := make([]model.Step, n)
	for i := 0; i < n; i++ {
		steps[i] = model.Step{
			ID:               model.GenerateUUID(),
			Title:            fmt.Sprintf("%s - Step %d", name, i+1),
			Description:      fmt.Sprintf("Part %d of the %s branch.", i+1, name),
			EstimatedMinutes: defaultStepMinutes,
		}
	}
	return steps, fmt.Sprintf("An alternate track exploring %s.", topic)
}

package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"
	"learnpath_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const excellentThreshold = 90

type TakeCheckpointResult struct {
	Checkpoint *model.Checkpoint   `json:"checkpoint"`
	Path       *model.LearningPath `json:"path"`
}

// TakeCheckpoint 按提交的选项下标给检查点打分，并在 isAdaptive 路径上
// 立即应用自适应调整。整个评分-调整在路径锁内一次完成，同一次提交
// 不会被调整两次。答案数组允许比题目短：缺失位按答错计。
func (s *PathService) TakeCheckpoint(requesterID uint, pathID, checkpointID string, answers []int) (*TakeCheckpointResult, error) {
	if len(answers) == 0 {
		return nil, util.ErrEmptyAnswers
	}

	var result *TakeCheckpointResult
	err := s.withPath(requesterID, pathID, func(path *model.LearningPath) error {
		cp := path.FindCheckpoint(checkpointID)
		if cp == nil {
			return util.ErrCheckpointNotFound
		}
		if !path.CheckpointUnlocked(cp) {
			return util.ErrCheckpointLocked
		}

		perf := evaluateCheckpoint(cp, answers)

		now := time.Now()
		cp.Completed = true
		cp.Score = &perf.Score
		cp.CompletedAt = &now
		cp.Performance = &perf

		// 评分之后立即做路径完成度检查
		path.RecomputeProgress(now)

		if path.IsAdaptive && (perf.NeedsRemediation || perf.ExcellentPerformance) {
			s.applyAdaptation(path, cp, &perf)
		}

		logger.Log.Info("checkpoint evaluated",
			zap.String("pathId", path.ID),
			zap.String("checkpointId", cp.ID),
			zap.Int("score", perf.Score),
			zap.Bool("needsRemediation", perf.NeedsRemediation),
			zap.Bool("excellent", perf.ExcellentPerformance))

		result = &TakeCheckpointResult{Checkpoint: cp, Path: path}
		return nil
	})
	return result, err
}

// evaluateCheckpoint 逐位比对选项下标，答错的题目记入 incorrectAreas。
func evaluateCheckpoint(cp *model.Checkpoint, answers []int) model.PerformanceData {
	total := len(cp.Questions)
	if total == 0 {
		// 空题目检查点视为自动通过
		return model.PerformanceData{Score: 100, IncorrectAreas: []string{}}
	}

	correct := 0
	incorrect := []string{}
	for i, q := range cp.Questions {
		if i < len(answers) && answers[i] == q.CorrectAnswerIndex {
			correct++
		} else {
			incorrect = append(incorrect, topicLabel(q))
		}
	}

	score := int(math.Round(100 * float64(correct) / float64(total)))
	return model.PerformanceData{
		Score:                score,
		IncorrectAreas:       incorrect,
		NeedsRemediation:     score < cp.PassingScore,
		ExcellentPerformance: score > excellentThreshold,
	}
}

// topicLabel 优先取题目上的结构化 topic；旧数据没有 topic 字段时
// 回退为剥掉固定模板前后缀。
func topicLabel(q model.QuizQuestion) string {
	if q.Topic != "" {
		return q.Topic
	}
	label := strings.TrimPrefix(q.Question, questionTemplatePrefix)
	label = strings.TrimSuffix(label, questionTemplateSuffix)
	return label
}

type AdaptPathRequest struct {
	CheckpointID   string   `json:"checkpointId" binding:"required"`
	Score          int      `json:"score"`
	IncorrectAreas []string `json:"incorrectAreas"`
}

// AdaptPath 以外部给定的成绩对路径做一次自适应调整。非 isAdaptive
// 路径上是无操作。同一结果重复提交会重复插入步骤，幂等性由调用方保证。
func (s *PathService) AdaptPath(requesterID uint, pathID string, req AdaptPathRequest) (*model.LearningPath, error) {
	var updated *model.LearningPath
	err := s.withPath(requesterID, pathID, func(path *model.LearningPath) error {
		cp := path.FindCheckpoint(req.CheckpointID)
		if cp == nil {
			return util.ErrCheckpointNotFound
		}
		updated = path
		if !path.IsAdaptive {
			return nil
		}

		perf := model.PerformanceData{
			Score:                req.Score,
			IncorrectAreas:       req.IncorrectAreas,
			NeedsRemediation:     req.Score < cp.PassingScore,
			ExcellentPerformance: req.Score > excellentThreshold,
		}
		if perf.NeedsRemediation || perf.ExcellentPerformance {
			s.applyAdaptation(path, cp, &perf)
		}
		return nil
	})
	return updated, err
}

// applyAdaptation 分数步插入：补救步骤落在 afterStep+0.1 起的空闲键上，
// 拔高步骤落在 afterStep+0.2。已有步骤的 order 一律不动。两个分支的条件
// 互相独立，同时成立时都会触发。
func (s *PathService) applyAdaptation(path *model.LearningPath, cp *model.Checkpoint, perf *model.PerformanceData) {
	if perf.NeedsRemediation {
		areas := perf.IncorrectAreas
		if len(areas) == 0 {
			areas = []string{"Checkpoint Review"}
		}
		for i, area := range areas {
			path.Steps = append(path.Steps, model.Step{
				ID:               model.GenerateUUID(),
				Title:            fmt.Sprintf("Review: %s", area),
				Description:      fmt.Sprintf("A focused review of %s, added after a checkpoint score below the passing line.", area),
				Order:            path.NextFreeOrder(cp.AfterStep + 0.1),
				EstimatedMinutes: 20 + 5*(i%3),
			})
			monitoring.AdaptationCounter.WithLabelValues("remedial").Inc()
		}
	}

	if perf.ExcellentPerformance {
		path.Steps = append(path.Steps, model.Step{
			ID:               model.GenerateUUID(),
			Title:            fmt.Sprintf("Advanced: %s", path.Topic),
			Description:      fmt.Sprintf("Optional advanced material on %s, unlocked by an excellent checkpoint score.", path.Topic),
			Order:            path.NextFreeOrder(cp.AfterStep + 0.2),
			EstimatedMinutes: 30,
		})
		monitoring.AdaptationCounter.WithLabelValues("advanced").Inc()
	}

	path.SortSteps()
	if path.NeedsOrderNormalization() {
		path.NormalizeOrders()
	}
	path.RecomputeProgress(time.Now())
}

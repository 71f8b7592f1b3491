package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/repository"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// failingGenerator 模拟生成端完全不可用
type failingGenerator struct{}

var errGeneratorDown = errors.New("generator unavailable")

func (failingGenerator) Curriculum(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	return "", errGeneratorDown
}

func (failingGenerator) PrerequisiteList(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	return "", errGeneratorDown
}

func (failingGenerator) BranchOutline(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	return "", errGeneratorDown
}

func newTestService() (*PathService, *repository.MemoryPathRepository) {
	repo := repository.NewMemoryPathRepository()
	return NewPathService(repo, &TemplateGenerator{}, nil), repo
}

func boolPtr(b bool) *bool { return &b }

func mustCreatePath(t *testing.T, svc *PathService, ownerID uint, req CreatePathRequest) *model.LearningPath {
	t.Helper()
	path, err := svc.CreatePath(context.Background(), ownerID, req)
	require.NoError(t, err)
	return path
}

func TestCreatePath(t *testing.T) {
	svc, _ := newTestService()
	path := mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Go", Level: model.LevelBeginner})

	require.NotEmpty(t, path.ID)
	require.Len(t, path.Steps, 9)
	for i, step := range path.Steps {
		assert.Equal(t, float64(i+1), step.Order)
		assert.False(t, step.Completed)
	}
	require.Len(t, path.Checkpoints, 2)
	assert.Equal(t, 3.0, path.Checkpoints[0].AfterStep)
	assert.Equal(t, 6.0, path.Checkpoints[1].AfterStep)

	assert.True(t, path.IsAdaptive, "isAdaptive defaults on")
	assert.Equal(t, 0, path.Progress)
	assert.Contains(t, []string(path.Tags), "Go")
	assert.Contains(t, []string(path.Tags), "beginner")
	assert.NotEmpty(t, path.Prerequisites)
	assert.NotEmpty(t, path.Description)
}

func TestCreatePathValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreatePath(ctx, 1, CreatePathRequest{Topic: "  ", Level: model.LevelBeginner})
	assert.ErrorIs(t, err, util.ErrEmptyTopic)

	_, err = svc.CreatePath(ctx, 1, CreatePathRequest{Topic: "Go", Level: "expert"})
	assert.ErrorIs(t, err, util.ErrInvalidLevel)
}

func TestCreatePathFallsBackWhenGenerationFails(t *testing.T) {
	repo := repository.NewMemoryPathRepository()
	svc := NewPathService(repo, failingGenerator{}, nil)

	path := mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Go", Level: model.LevelAdvanced})
	assert.Len(t, path.Steps, 15, "template fallback must still yield a full path")
	assert.NotEmpty(t, path.Checkpoints)
}

func TestGetPathVisibility(t *testing.T) {
	svc, _ := newTestService()
	private := mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Go", Level: model.LevelBeginner})
	public := mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Rust", Level: model.LevelBeginner, IsPublic: true})

	_, err := svc.GetPath(1, private.ID)
	assert.NoError(t, err)

	_, err = svc.GetPath(2, private.ID)
	assert.ErrorIs(t, err, util.ErrNotPathOwner)

	got, err := svc.GetPath(2, public.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rust", got.Topic)

	_, err = svc.GetPath(1, "no-such-id")
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestListPaths(t *testing.T) {
	svc, _ := newTestService()
	mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Go", Level: model.LevelBeginner})
	mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Rust", Level: model.LevelBeginner})
	mustCreatePath(t, svc, 2, CreatePathRequest{Topic: "C", Level: model.LevelBeginner})

	mine, err := svc.ListPaths(1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestUpdatePath(t *testing.T) {
	svc, _ := newTestService()
	path := mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Go", Level: model.LevelBeginner})

	desc := "my own words"
	updated, err := svc.UpdatePath(1, path.ID, UpdatePathRequest{
		Description: &desc,
		IsAdaptive:  boolPtr(false),
		IsPublic:    boolPtr(true),
		Tags:        &[]string{"go", "tour"},
	})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.False(t, updated.IsAdaptive)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, model.StringList{"go", "tour"}, updated.Tags)

	_, err = svc.UpdatePath(2, path.ID, UpdatePathRequest{Description: &desc})
	assert.ErrorIs(t, err, util.ErrNotPathOwner)
}

func TestCompleteStepProgressAndCheckpointHint(t *testing.T) {
	svc, _ := newTestService()
	path := mustCreatePath(t, svc, 1, CreatePathRequest{Topic: "Go", Level: model.LevelBeginner})

	res, err := svc.CompleteStep(1, path.ID, path.Steps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Path.Progress)
	assert.False(t, res.ShouldTakeCheckpoint, "first checkpoint still locked")

	res, err = svc.CompleteStep(1, path.ID, path.Steps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 22, res.Path.Progress)
	assert.False(t, res.ShouldTakeCheckpoint)

	res, err = svc.CompleteStep(1, path.ID, path.Steps[2].ID)
	require.NoError(t, err)
	assert.True(t, res.ShouldTakeCheckpoint)
	assert.Equal(t, path.Checkpoints[0].ID, res.CheckpointID)

	// 重复完成是幂等的
	res, err = svc.CompleteStep(1, path.ID, path.Steps[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 33, res.Path.Progress)

	_, err = svc.CompleteStep(1, path.ID, "no-such-step")
	assert.ErrorIs(t, err, util.ErrStepNotFound)

	_, err = svc.CompleteStep(2, path.ID, path.Steps[3].ID)
	assert.ErrorIs(t, err, util.ErrNotPathOwner)
}

func completeAllSteps(t *testing.T, svc *PathService, ownerID uint, path *model.LearningPath) {
	t.Helper()
	for _, step := range path.Steps {
		_, err := svc.CompleteStep(ownerID, path.ID, step.ID)
		require.NoError(t, err)
	}
}

func TestPathCompletionLifecycle(t *testing.T) {
	svc, _ := newTestService()
	path := mustCreatePath(t, svc, 1, CreatePathRequest{
		Topic: "Go", Level: model.LevelBeginner, IsAdaptive: boolPtr(false),
	})

	completeAllSteps(t, svc, 1, path)

	got, err := svc.GetPath(1, path.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.Nil(t, got.CompletedAt, "checkpoints still pending")

	for _, cp := range path.Checkpoints {
		_, err := svc.TakeCheckpoint(1, path.ID, cp.ID, []int{0, 0, 0})
		require.NoError(t, err)
	}

	got, err = svc.GetPath(1, path.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)

	// 重新打开任一步骤后完成时间回退，进度同步下降
	updated, err := svc.ReopenStep(1, path.ID, path.Steps[4].ID)
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
	assert.Equal(t, 89, updated.Progress)
}

// 同一路径上的并发变更必须串行生效，任何一次提交都不能被覆盖丢失。
func TestConcurrentMutationsAreSerialized(t *testing.T) {
	repo := repository.NewMemoryPathRepository()
	svc := NewPathService(repo, &TemplateGenerator{}, nil)
	path := mustCreatePath(t, svc, 1, CreatePathRequest{
		Topic: "Go", Level: model.LevelBeginner, IsAdaptive: boolPtr(false),
	})

	// 注入读写延迟放大 read-modify-write 竞争窗口
	repo.Latency = 2 * time.Millisecond

	var wg sync.WaitGroup
	for _, step := range path.Steps {
		wg.Add(1)
		go func(stepID string) {
			defer wg.Done()
			if _, err := svc.CompleteStep(1, path.ID, stepID); err != nil {
				t.Errorf("complete step %s: %v", stepID, err)
			}
		}(step.ID)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		desc := "updated concurrently"
		if _, err := svc.UpdatePath(1, path.ID, UpdatePathRequest{Description: &desc}); err != nil {
			t.Errorf("update path: %v", err)
		}
	}()
	wg.Wait()

	got, err := svc.GetPath(1, path.ID)
	require.NoError(t, err)
	for i, step := range got.Steps {
		assert.True(t, step.Completed, fmt.Sprintf("step %d lost its completion", i))
	}
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "updated concurrently", got.Description)
}

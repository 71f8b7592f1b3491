package model

import (
	"math"
	"testing"
	"time"
)

func makeSteps(n int, completed int) StepList {
	steps := make(StepList, n)
	for i := 0; i < n; i++ {
		steps[i] = Step{
			ID:    GenerateUUID(),
			Title: "step",
			Order: float64(i + 1),
		}
		if i < completed {
			steps[i].Completed = true
		}
	}
	return steps
}

func TestRecomputeProgressRounding(t *testing.T) {
	cases := []struct {
		total, done, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{3, 1, 33},
		{3, 2, 67},
		{6, 1, 17},
		{8, 3, 38},
		{4, 4, 100},
	}
	for _, c := range cases {
		p := &LearningPath{Steps: makeSteps(c.total, c.done)}
		p.RecomputeProgress(time.Now())
		if p.Progress != c.want {
			t.Errorf("progress with %d/%d completed = %d, want %d", c.done, c.total, p.Progress, c.want)
		}
	}
}

func TestCompletedAtInvariant(t *testing.T) {
	passed := 85
	failed := 40
	p := &LearningPath{
		Steps: makeSteps(3, 3),
		Checkpoints: CheckpointList{
			{ID: GenerateUUID(), AfterStep: 2, PassingScore: 70, Completed: true, Score: &failed},
		},
	}

	p.RecomputeProgress(time.Now())
	if p.CompletedAt != nil {
		t.Fatal("completedAt set although a checkpoint is below the passing score")
	}

	p.Checkpoints[0].Score = &passed
	p.RecomputeProgress(time.Now())
	if p.CompletedAt == nil {
		t.Fatal("completedAt not set although all steps and checkpoints are done")
	}

	// 重新打开一个步骤后完成时间必须回退
	p.Steps[1].Completed = false
	p.RecomputeProgress(time.Now())
	if p.CompletedAt != nil {
		t.Fatal("completedAt not cleared after reopening a step")
	}

	empty := &LearningPath{}
	empty.RecomputeProgress(time.Now())
	if empty.CompletedAt != nil || empty.Progress != 0 {
		t.Fatal("empty path must stay at zero progress without a completion time")
	}
}

func TestNextFreeOrderSkipsTakenKeys(t *testing.T) {
	p := &LearningPath{Steps: StepList{
		{ID: "a", Order: 1},
		{ID: "b", Order: 3.1},
		{ID: "c", Order: 3.101},
	}}

	got := p.NextFreeOrder(3.1)
	if got != 3.102 {
		t.Errorf("NextFreeOrder(3.1) = %v, want 3.102", got)
	}
	if got := p.NextFreeOrder(3.2); got != 3.2 {
		t.Errorf("NextFreeOrder(3.2) = %v, want 3.2", got)
	}
}

func TestNormalizeOrders(t *testing.T) {
	p := &LearningPath{
		Steps: StepList{
			{ID: "a", Order: 1},
			{ID: "r1", Order: 3.1},
			{ID: "r2", Order: 3.1 + 1e-7},
			{ID: "b", Order: 4},
		},
		Checkpoints: CheckpointList{
			{ID: "cp", AfterStep: 3.1 + 1e-7},
		},
	}

	if !p.NeedsOrderNormalization() {
		t.Fatal("gap below the precision floor not detected")
	}

	p.NormalizeOrders()
	wantIDs := []string{"a", "r1", "r2", "b"}
	for i, id := range wantIDs {
		if p.Steps[i].ID != id {
			t.Fatalf("relative order changed, step %d = %s, want %s", i, p.Steps[i].ID, id)
		}
		if p.Steps[i].Order != float64(i+1) {
			t.Errorf("step %s order = %v, want %d", id, p.Steps[i].Order, i+1)
		}
	}
	// 阈值映射到原阈值之前最后一个步骤的新 order
	if p.Checkpoints[0].AfterStep != 3 {
		t.Errorf("checkpoint afterStep = %v, want 3", p.Checkpoints[0].AfterStep)
	}
	if p.NeedsOrderNormalization() {
		t.Error("normalization left neighboring orders below the precision floor")
	}
}

func TestCheckpointUnlocked(t *testing.T) {
	p := &LearningPath{Steps: makeSteps(5, 2)}
	cp := &Checkpoint{AfterStep: 3}

	if p.CheckpointUnlocked(cp) {
		t.Error("checkpoint unlocked while a step within the threshold is incomplete")
	}
	p.Steps[2].Completed = true
	if !p.CheckpointUnlocked(cp) {
		t.Error("checkpoint locked although all steps within the threshold are done")
	}
	if math.Abs(p.Steps[4].Order-5) > 1e-9 || p.Steps[4].Completed {
		t.Fatal("steps beyond the threshold should not matter")
	}

	if got := p.NextPendingCheckpoint(); got != nil {
		t.Errorf("no checkpoints attached, got pending %v", got.ID)
	}
	p.Checkpoints = CheckpointList{*cp}
	if got := p.NextPendingCheckpoint(); got == nil || got.AfterStep != 3 {
		t.Error("unlocked pending checkpoint not returned")
	}
}

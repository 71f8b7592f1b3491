package service

import (
	"fmt"
	"testing"

	"learnpath_backend/internal/model"
)

func numberedSteps(n int) []model.Step {
	steps := make([]model.Step, n)
	for i := 0; i < n; i++ {
		steps[i] = model.Step{
			ID:    model.GenerateUUID(),
			Title: fmt.Sprintf("Step %d", i+1),
			Order: float64(i + 1),
		}
	}
	return steps
}

func TestPlanCheckpointsPlacement(t *testing.T) {
	cases := []struct {
		steps     int
		wantAfter []float64
	}{
		{0, nil},
		{1, nil},
		{2, []float64{1}},
		{3, []float64{1, 2}},
		{4, []float64{2}},
		{5, []float64{2, 4}},
		{6, []float64{3}},
		{9, []float64{3, 6}},
		{10, []float64{3, 6, 9}},
	}

	for _, c := range cases {
		got := PlanCheckpoints(numberedSteps(c.steps))
		if len(got) != len(c.wantAfter) {
			t.Errorf("%d steps: %d checkpoints, want %d", c.steps, len(got), len(c.wantAfter))
			continue
		}
		for i, after := range c.wantAfter {
			if got[i].AfterStep != after {
				t.Errorf("%d steps: checkpoint %d afterStep = %v, want %v", c.steps, i, got[i].AfterStep, after)
			}
			if got[i].PassingScore != defaultPassingScore {
				t.Errorf("%d steps: checkpoint %d passingScore = %d", c.steps, i, got[i].PassingScore)
			}
			if got[i].ID == "" {
				t.Errorf("%d steps: checkpoint %d missing id", c.steps, i)
			}
		}
	}
}

func TestPlanCheckpointsQuestionsCoverWindow(t *testing.T) {
	cps := PlanCheckpoints(numberedSteps(10))
	if len(cps) != 3 {
		t.Fatalf("checkpoints = %d, want 3", len(cps))
	}

	// 第二个检查点只考察步骤 4..6
	questions := cps[1].Questions
	if len(questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(questions))
	}
	for i, q := range questions {
		wantTitle := fmt.Sprintf("Step %d", i+4)
		if q.Topic != wantTitle {
			t.Errorf("question %d topic = %q, want %q", i, q.Topic, wantTitle)
		}
		want := questionTemplatePrefix + wantTitle + questionTemplateSuffix
		if q.Question != want {
			t.Errorf("question %d text = %q, want %q", i, q.Question, want)
		}
		if q.CorrectAnswerIndex != 0 {
			t.Errorf("question %d correct index = %d, want 0", i, q.CorrectAnswerIndex)
		}
		if len(q.Options) != 4 {
			t.Errorf("question %d options = %d, want 4", i, len(q.Options))
		}
	}
}

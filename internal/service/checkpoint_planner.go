package service

import (
	"fmt"

	"learnpath_backend/internal/model"
)

const (
	defaultPassingScore = 70
	checkpointInterval  = 3
)

const questionTemplatePrefix = "What is the main concept covered in '"
const questionTemplateSuffix = "'?"

// PlanCheckpoints 在有序步骤列表上按固定窗口插入检查点：短路径（≤5 步）对半，
// 长路径每 3 步一个。每个检查点只考察它前面窗口内的步骤，每步合成一道
// 模板选择题，正确项固定在下标 0，题目携带来源步骤标题作为结构化 topic。
func PlanCheckpoints(steps []model.Step) []model.Checkpoint {
	n := len(steps)
	if n == 0 {
		return nil
	}

	interval := checkpointInterval
	if n <= 5 {
		interval = n / 2
	}
	if interval < 1 {
		interval = 1
	}

	var checkpoints []model.Checkpoint
	for i := interval; i < n; i += interval {
		questions := make([]model.QuizQuestion, 0, interval)
		for _, step := range steps[i-interval : i] {
			questions = append(questions, synthesizeQuestion(step.Title))
		}
		checkpoints = append(checkpoints, model.Checkpoint{
			ID:           model.GenerateUUID(),
			AfterStep:    steps[i-1].Order,
			Questions:    questions,
			PassingScore: defaultPassingScore,
		})
	}
	return checkpoints
}

func synthesizeQuestion(stepTitle string) model.QuizQuestion {
	return model.QuizQuestion{
		Question: questionTemplatePrefix + stepTitle + questionTemplateSuffix,
		Topic:    stepTitle,
		Options: []string{
			fmt.Sprintf("The core ideas and practice introduced in '%s'", stepTitle),
			"A general history of computing",
			"Unrelated installation and setup details",
			"None of the above",
		},
		CorrectAnswerIndex: 0,
		Explanation:        fmt.Sprintf("Revisit the step '%s' if this was unclear.", stepTitle),
	}
}

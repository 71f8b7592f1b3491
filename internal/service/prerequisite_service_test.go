package service

import (
	"context"
	"strings"
	"testing"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
)

func TestIdentifyPrerequisitesValidation(t *testing.T) {
	svc := NewPrerequisiteService(&TemplateGenerator{}, nil)
	ctx := context.Background()

	if _, err := svc.IdentifyPrerequisites(ctx, "   ", model.LevelBeginner); err != util.ErrEmptyTopic {
		t.Errorf("blank topic err = %v, want ErrEmptyTopic", err)
	}
	if _, err := svc.IdentifyPrerequisites(ctx, "Go", "guru"); err != util.ErrInvalidLevel {
		t.Errorf("bad level err = %v, want ErrInvalidLevel", err)
	}
}

func TestIdentifyPrerequisitesFromGeneratedDocument(t *testing.T) {
	svc := NewPrerequisiteService(&TemplateGenerator{}, nil)

	prereqs, err := svc.IdentifyPrerequisites(context.Background(), "Go", model.LevelIntermediate)
	if err != nil {
		t.Fatal(err)
	}
	if len(prereqs) != 2 {
		t.Fatalf("prerequisites = %d, want 2", len(prereqs))
	}
	if prereqs[0].Topic != "Fundamentals of Go" || prereqs[0].Importance != model.ImportanceRequired {
		t.Errorf("first prerequisite = %+v", prereqs[0])
	}
	if prereqs[1].Importance != model.ImportanceRecommended {
		t.Errorf("unmarked item importance = %s, want recommended", prereqs[1].Importance)
	}
}

// 生成端不可用时退回等级分层模板，非空 topic 永远至少返回一条
func TestIdentifyPrerequisitesTieredFallback(t *testing.T) {
	svc := NewPrerequisiteService(failingGenerator{}, nil)
	ctx := context.Background()

	cases := []struct {
		level        model.PathLevel
		wantCount    int
		wantRequired int
	}{
		{model.LevelBeginner, 1, 1},
		{model.LevelIntermediate, 2, 1},
		{model.LevelAdvanced, 3, 2},
	}

	for _, c := range cases {
		prereqs, err := svc.IdentifyPrerequisites(ctx, "Kubernetes", c.level)
		if err != nil {
			t.Fatalf("%s: %v", c.level, err)
		}
		if len(prereqs) != c.wantCount {
			t.Errorf("%s: count = %d, want %d", c.level, len(prereqs), c.wantCount)
			continue
		}
		required := 0
		for _, p := range prereqs {
			if p.Topic == "" {
				t.Errorf("%s: prerequisite without topic", c.level)
			}
			if p.Importance == model.ImportanceRequired {
				required++
			}
		}
		if required != c.wantRequired {
			t.Errorf("%s: required = %d, want %d", c.level, required, c.wantRequired)
		}
	}
}

func TestTieredPrerequisitesMentionTopic(t *testing.T) {
	for _, level := range []model.PathLevel{model.LevelBeginner, model.LevelIntermediate, model.LevelAdvanced} {
		for _, p := range tieredPrerequisites("GraphQL", level) {
			if !strings.Contains(p.Topic, "GraphQL") {
				t.Errorf("%s: prerequisite %q does not mention the topic", level, p.Topic)
			}
		}
	}
}

package service

import (
	"fmt"
	"strings"

	"learnpath_backend/internal/model"
)

// ParsedDocument 文档解析结果（临时结构，尚未挂到聚合上）
type ParsedDocument struct {
	Description   string
	Prerequisites []model.Prerequisite
	Steps         []model.Step
	Tags          []string
}

const defaultStepMinutes = 30

// ParseDocument 将一段生成文本按宽松的章节语法解析为临时课程结构。
// 纯函数，永不失败：缺失的章节取空值，完全无法识别时返回兜底结构。
// 标签固定包含 topic 与 level，外加每个 stage 标题的小写形式。
func ParseDocument(raw, topic string, level model.PathLevel) ParsedDocument {
	doc := ParsedDocument{
		Tags: []string{topic, string(level)},
	}

	var (
		section      string // overview / prerequisites / journey / resources
		stageTitle   string
		overviewText []string
		resources    []string
		order        float64
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "## "):
			heading := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "## ")))
			switch {
			case strings.Contains(heading, "overview"):
				section = "overview"
			case strings.Contains(heading, "prerequisite"):
				section = "prerequisites"
			case strings.Contains(heading, "learning journey"):
				section = "journey"
			case strings.Contains(heading, "resource"):
				section = "resources"
			default:
				section = ""
			}
			stageTitle = ""

		case strings.HasPrefix(line, "### "):
			if section != "journey" {
				continue
			}
			stageTitle = parseStageTitle(strings.TrimPrefix(line, "### "))
			if stageTitle != "" {
				doc.Tags = append(doc.Tags, strings.ToLower(stageTitle))
			}

		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			item := strings.TrimSpace(line[2:])
			if item == "" {
				continue
			}
			switch section {
			case "prerequisites":
				doc.Prerequisites = append(doc.Prerequisites, parsePrerequisite(item))
			case "journey":
				if stageTitle == "" {
					continue
				}
				order++
				title, desc := splitTitle(item)
				doc.Steps = append(doc.Steps, model.Step{
					ID:               model.GenerateUUID(),
					Title:            title,
					Description:      desc,
					Order:            order,
					EstimatedMinutes: defaultStepMinutes,
				})
			case "resources":
				resources = append(resources, item)
			}

		default:
			if section == "overview" {
				overviewText = append(overviewText, line)
			}
		}
	}

	doc.Description = strings.TrimSpace(strings.Join(overviewText, " "))
	if doc.Description == "" {
		doc.Description = fmt.Sprintf("A learning path about %s at %s level.", topic, level)
	}

	// 资源按轮转分配到已有步骤上
	if len(doc.Steps) > 0 {
		for i, res := range resources {
			step := &doc.Steps[i%len(doc.Steps)]
			step.Resources = append(step.Resources, model.StepResource{
				Title: res,
				Kind:  classifyResource(res),
				URL:   extractURL(res),
			})
		}
	}

	return doc
}

// parseStageTitle 接受 "Stage N: <title>" 形式，也容忍裸标题
func parseStageTitle(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "stage") {
		if idx := strings.Index(s, ":"); idx >= 0 {
			return strings.TrimSpace(s[idx+1:])
		}
	}
	return s
}

// splitTitle "Title: detail" 拆为标题和描述，没有冒号时整条作标题
func splitTitle(item string) (string, string) {
	if idx := strings.Index(item, ": "); idx > 0 {
		return strings.TrimSpace(item[:idx]), strings.TrimSpace(item[idx+2:])
	}
	return item, ""
}

func parsePrerequisite(item string) model.Prerequisite {
	importance := model.ImportanceRecommended
	lower := strings.ToLower(item)
	if strings.Contains(lower, "(required)") {
		importance = model.ImportanceRequired
	} else if strings.Contains(lower, "(optional)") {
		importance = model.ImportanceOptional
	}

	topic := item
	for _, marker := range []string{"(required)", "(optional)", "(Required)", "(Optional)"} {
		topic = strings.ReplaceAll(topic, marker, "")
	}
	topic, desc := splitTitle(strings.TrimSpace(topic))

	return model.Prerequisite{
		Topic:       topic,
		Description: desc,
		Importance:  importance,
		ResourceURL: extractURL(item),
	}
}

func classifyResource(text string) model.ResourceKind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "video") || strings.Contains(lower, "youtube") || strings.Contains(lower, "watch"):
		return model.ResourceVideo
	case strings.Contains(lower, "book"):
		return model.ResourceBook
	case strings.Contains(lower, "tool") || strings.Contains(lower, "playground"):
		return model.ResourceTool
	default:
		return model.ResourceArticle
	}
}

func extractURL(text string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if idx := strings.Index(text, prefix); idx >= 0 {
			url := text[idx:]
			if end := strings.IndexAny(url, " )]"); end > 0 {
				url = url[:end]
			}
			return url
		}
	}
	return ""
}

package service

import (
	"context"
	"fmt"
	"strings"

	"learnpath_backend/internal/model"
)

// TemplateGenerator 确定性生成器：降依赖模式和生成失败回退时使用。
// 产出的文档严格符合解析语法，保证回退路径永远可用。
type TemplateGenerator struct{}

var stageTemplates = []struct {
	title string
	items []string
}{
	{"Getting Started with %s", []string{
		"Understand what %s is and where it is used",
		"Set up a working environment for %s",
		"Walk through a first hands-on example of %s",
	}},
	{"Core Concepts of %s", []string{
		"Learn the fundamental building blocks of %s",
		"Practice the most common patterns in %s",
		"Recognize and fix typical beginner mistakes in %s",
	}},
	{"Applying %s", []string{
		"Build a small project using %s",
		"Read and review real-world examples of %s",
		"Test and debug your own %s work",
	}},
	{"Going Deeper into %s", []string{
		"Study intermediate techniques in %s",
		"Compare alternative approaches within %s",
		"Refactor an earlier %s project with new techniques",
	}},
	{"Mastering %s", []string{
		"Explore advanced and edge-case behavior of %s",
		"Learn performance and optimization practices for %s",
		"Contribute to or publish a substantial %s project",
	}},
}

func stageCount(level model.PathLevel) int {
	switch level {
	case model.LevelIntermediate:
		return 4
	case model.LevelAdvanced:
		return 5
	default:
		return 3
	}
}

func (g *TemplateGenerator) Curriculum(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	var b strings.Builder

	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "A structured %s-level learning path for %s, moving from first principles to independent practice.\n\n", level, topic)

	b.WriteString("## Prerequisites\n")
	switch level {
	case model.LevelBeginner:
		fmt.Fprintf(&b, "- Basic computer literacy (recommended)\n")
	case model.LevelIntermediate:
		fmt.Fprintf(&b, "- Fundamentals of %s (required)\n", topic)
		fmt.Fprintf(&b, "- Some hands-on practice with %s basics\n", topic)
	case model.LevelAdvanced:
		fmt.Fprintf(&b, "- Solid working knowledge of %s (required)\n", topic)
		fmt.Fprintf(&b, "- Experience shipping %s projects (required)\n", topic)
		fmt.Fprintf(&b, "- Familiarity with the wider %s ecosystem (optional)\n", topic)
	}
	b.WriteString("\n## Learning Journey\n")

	for i := 0; i < stageCount(level); i++ {
		tpl := stageTemplates[i]
		fmt.Fprintf(&b, "### Stage %d: %s\n", i+1, fmt.Sprintf(tpl.title, topic))
		for _, item := range tpl.items {
			fmt.Fprintf(&b, "- %s\n", fmt.Sprintf(item, topic))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Resources\n")
	fmt.Fprintf(&b, "- Introductory video course on %s\n", topic)
	fmt.Fprintf(&b, "- A practical book about %s\n", topic)
	fmt.Fprintf(&b, "- An interactive tool or playground for %s\n", topic)
	fmt.Fprintf(&b, "- Reference article collection for %s\n", topic)

	return b.String(), nil
}

func (g *TemplateGenerator) PrerequisiteList(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	var b strings.Builder
	b.WriteString("## Prerequisites\n")
	switch level {
	case model.LevelIntermediate:
		fmt.Fprintf(&b, "- Fundamentals of %s (required)\n", topic)
		fmt.Fprintf(&b, "- Practical applications of %s\n", topic)
	case model.LevelAdvanced:
		fmt.Fprintf(&b, "- Advanced concepts in %s (required)\n", topic)
		fmt.Fprintf(&b, "- Implementation experience with %s (required)\n", topic)
		fmt.Fprintf(&b, "- Best practices around %s\n", topic)
	default:
		fmt.Fprintf(&b, "- Fundamentals of %s (required)\n", topic)
	}
	return b.String(), nil
}

func (g *TemplateGenerator) BranchOutline(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	var b strings.Builder
	b.WriteString("## Learning Journey\n")
	fmt.Fprintf(&b, "### Stage 1: %s\n", topic)
	n := branchStepCount(level)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "- %s - Step %d\n", topic, i)
	}
	return b.String(), nil
}

// branchStepCount 分支回退模板的步骤数：3/4/5 按等级递增
func branchStepCount(level model.PathLevel) int {
	switch level {
	case model.LevelIntermediate:
		return 4
	case model.LevelAdvanced:
		return 5
	default:
		return 3
	}
}

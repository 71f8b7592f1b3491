package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"learnpath_backend/pkg/logger"
	"learnpath_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// DocumentGenerator 文本生成协作方的能力接口。实现方只需返回一段
// 大致符合章节语法的文本，不符合也会被解析层优雅降级。
type DocumentGenerator interface {
	Curriculum(ctx context.Context, topic string, level model.PathLevel) (string, error)
	PrerequisiteList(ctx context.Context, topic string, level model.PathLevel) (string, error)
	BranchOutline(ctx context.Context, topic string, level model.PathLevel) (string, error)
}

// NewDocumentGenerator 按配置选择 live / template 实现。live 模式外层包一个
// 超时 + 模板回退：生成失败从不向上抛，只降级。
func NewDocumentGenerator(cfg config.GenerationConfig) DocumentGenerator {
	tpl := &TemplateGenerator{}
	if cfg.Mode != "live" {
		return tpl
	}
	return &fallbackGenerator{
		primary:  NewAIGenerator(cfg),
		fallback: tpl,
		timeout:  cfg.TimeoutSeconds,
	}
}

type fallbackGenerator struct {
	primary  DocumentGenerator
	fallback DocumentGenerator
	timeout  time.Duration
}

func (g *fallbackGenerator) generate(ctx context.Context, kind string,
	fn func(context.Context) (string, error),
	fb func(context.Context) (string, error)) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	doc, err := fn(ctx)
	if err == nil && strings.TrimSpace(doc) != "" {
		return doc, nil
	}
	monitoring.GenerationFallbackCounter.Inc()
	logger.Log.Warn("generation degraded to template",
		zap.String("kind", kind), zap.Error(err))
	return fb(context.Background())
}

func (g *fallbackGenerator) Curriculum(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	return g.generate(ctx, "curriculum",
		func(ctx context.Context) (string, error) { return g.primary.Curriculum(ctx, topic, level) },
		func(ctx context.Context) (string, error) { return g.fallback.Curriculum(ctx, topic, level) })
}

func (g *fallbackGenerator) PrerequisiteList(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	return g.generate(ctx, "prerequisites",
		func(ctx context.Context) (string, error) { return g.primary.PrerequisiteList(ctx, topic, level) },
		func(ctx context.Context) (string, error) { return g.fallback.PrerequisiteList(ctx, topic, level) })
}

func (g *fallbackGenerator) BranchOutline(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	return g.generate(ctx, "branch",
		func(ctx context.Context) (string, error) { return g.primary.BranchOutline(ctx, topic, level) },
		func(ctx context.Context) (string, error) { return g.fallback.BranchOutline(ctx, topic, level) })
}

// AIGenerator 调用 OpenAI 兼容的 /chat/completions 接口
type AIGenerator struct {
	config config.GenerationConfig
	client *http.Client
}

func NewAIGenerator(cfg config.GenerationConfig) *AIGenerator {
	return &AIGenerator{
		config: cfg,
		client: &http.Client{Timeout: cfg.TimeoutSeconds},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const curriculumSystemPrompt = "You are a curriculum designer. Answer with a markdown document " +
	"containing these sections: '## Overview' (a short paragraph), '## Prerequisites' (a bullet list), " +
	"'## Learning Journey' with '### Stage N: <title>' subsections whose bullet items are individual " +
	"learning steps, and '## Resources' (a bullet list). No other prose."

func (g *AIGenerator) Curriculum(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	prompt := fmt.Sprintf("Create a %s-level learning curriculum for the topic %q.", level, topic)
	return g.chat(ctx, curriculumSystemPrompt, prompt)
}

func (g *AIGenerator) PrerequisiteList(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	prompt := fmt.Sprintf(
		"List the prerequisites for studying %q at %s level under a '## Prerequisites' heading, "+
			"one bullet per prerequisite, marking each with (required) or (optional) where appropriate.",
		topic, level)
	return g.chat(ctx, curriculumSystemPrompt, prompt)
}

func (g *AIGenerator) BranchOutline(ctx context.Context, topic string, level model.PathLevel) (string, error) {
	prompt := fmt.Sprintf(
		"Create a short %s-level side-track curriculum about %q: a '## Learning Journey' section with "+
			"one or two stages and a few bullet steps each.", level, topic)
	return g.chat(ctx, curriculumSystemPrompt, prompt)
}

func (g *AIGenerator) chat(ctx context.Context, system, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("generation API returned no choices")
}

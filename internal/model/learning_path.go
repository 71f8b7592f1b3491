package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

type PathLevel string

const (
	LevelBeginner     PathLevel = "beginner"
	LevelIntermediate PathLevel = "intermediate"
	LevelAdvanced     PathLevel = "advanced"
)

func (l PathLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type ResourceKind string

const (
	ResourceVideo   ResourceKind = "video"
	ResourceBook    ResourceKind = "book"
	ResourceTool    ResourceKind = "tool"
	ResourceArticle ResourceKind = "article"
)

type Importance string

const (
	ImportanceRequired    Importance = "required"
	ImportanceRecommended Importance = "recommended"
	ImportanceOptional    Importance = "optional"
)

type BranchCondition string

const (
	BranchInterest    BranchCondition = "interest"
	BranchPerformance BranchCondition = "performance"
	BranchTime        BranchCondition = "time"
	BranchManual      BranchCondition = "manual"
)

func (c BranchCondition) Valid() bool {
	switch c {
	case BranchInterest, BranchPerformance, BranchTime, BranchManual:
		return true
	}
	return false
}

type StepResource struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Kind        ResourceKind `json:"kind"`
	Description string       `json:"description,omitempty"`
}

// Step 学习路径中的一个原子内容单元。Order 为实数，允许分数插入。
type Step struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Content          string         `json:"content,omitempty"`
	Order            float64        `json:"order"`
	EstimatedMinutes int            `json:"estimatedMinutes"`
	Resources        []StepResource `json:"resources,omitempty"`
	Quiz             []QuizQuestion `json:"quiz,omitempty"`
	Completed        bool           `json:"completed"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
}

type QuizQuestion struct {
	Question           string   `json:"question"`
	Topic              string   `json:"topic,omitempty"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation,omitempty"`
}

type PerformanceData struct {
	Score                int      `json:"score"`
	IncorrectAreas       []string `json:"incorrectAreas"`
	NeedsRemediation     bool     `json:"needsRemediation"`
	ExcellentPerformance bool     `json:"excellentPerformance"`
}

// Checkpoint 一段步骤之后的测验关卡。AfterStep 是可参加前必须达到的 order 阈值。
type Checkpoint struct {
	ID           string           `json:"id"`
	AfterStep    float64          `json:"afterStep"`
	Questions    []QuizQuestion   `json:"questions"`
	PassingScore int              `json:"passingScore"`
	Completed    bool             `json:"completed"`
	Score        *int             `json:"score,omitempty"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	Performance  *PerformanceData `json:"performanceData,omitempty"`
}

// Branch 是主线步骤集合上的一个视图：只记录步骤 ID，步骤本体仍在 Steps 中。
type Branch struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Condition   BranchCondition `json:"condition"`
	StepIDs     []string        `json:"stepIds"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Prerequisite struct {
	Topic       string     `json:"topic"`
	Description string     `json:"description,omitempty"`
	Importance  Importance `json:"importance"`
	ResourceURL string     `json:"resourceUrl,omitempty"`
}

type StepList []Step
type CheckpointList []Checkpoint
type BranchList []Branch
type PrerequisiteList []Prerequisite
type StringList []string

// swagger:model LearningPath
type LearningPath struct {
	UUIDBase
	Topic         string           `gorm:"size:255;not null" json:"topic"`
	Level         PathLevel        `gorm:"size:20;not null" json:"level"`
	OwnerID       uint             `gorm:"index;type:bigint unsigned" json:"ownerId"`
	Steps         StepList         `gorm:"type:json" json:"steps"`
	Branches      BranchList       `gorm:"type:json" json:"branches"`
	Prerequisites PrerequisiteList `gorm:"type:json" json:"prerequisites"`
	Checkpoints   CheckpointList   `gorm:"type:json" json:"checkpoints"`
	Description   string           `gorm:"type:text" json:"description"`
	Progress      int              `gorm:"default:0" json:"progress"`
	IsAdaptive    bool             `gorm:"default:true" json:"isAdaptive"`
	IsPublic      bool             `gorm:"default:false" json:"isPublic"`
	Tags          StringList       `gorm:"type:json" json:"tags"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest interface{}, src interface{}) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}

func (s StepList) Value() (driver.Value, error) { return jsonValue(s) }
func (s *StepList) Scan(src interface{}) error  { return jsonScan(s, src) }

func (c CheckpointList) Value() (driver.Value, error) { return jsonValue(c) }
func (c *CheckpointList) Scan(src interface{}) error  { return jsonScan(c, src) }

func (b BranchList) Value() (driver.Value, error) { return jsonValue(b) }
func (b *BranchList) Scan(src interface{}) error  { return jsonScan(b, src) }

func (p PrerequisiteList) Value() (driver.Value, error) { return jsonValue(p) }
func (p *PrerequisiteList) Scan(src interface{}) error  { return jsonScan(p, src) }

func (s StringList) Value() (driver.Value, error) { return jsonValue(s) }
func (s *StringList) Scan(src interface{}) error  { return jsonScan(s, src) }

// SortSteps 按 order 升序重排，保证迭代顺序与 order 全序一致。
func (p *LearningPath) SortSteps() {
	sort.SliceStable(p.Steps, func(i, j int) bool {
		return p.Steps[i].Order < p.Steps[j].Order
	})
}

func (p *LearningPath) FindStep(id string) *Step {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}

func (p *LearningPath) FindCheckpoint(id string) *Checkpoint {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].ID == id {
			return &p.Checkpoints[i]
		}
	}
	return nil
}

func (p *LearningPath) MaxStepOrder() float64 {
	max := 0.0
	for i := range p.Steps {
		if p.Steps[i].Order > max {
			max = p.Steps[i].Order
		}
	}
	return max
}

func (p *LearningPath) hasOrder(order float64) bool {
	for i := range p.Steps {
		if p.Steps[i].Order == order {
			return true
		}
	}
	return false
}

// NextFreeOrder 从 base 开始寻找未被占用的 order 键。
// 重复对同一检查点做适配会插入重复步骤（源语义如此），键必须避开已有值
// 以维持两两互异不变量。
func (p *LearningPath) NextFreeOrder(base float64) float64 {
	order := base
	for p.hasOrder(order) {
		order += 0.001
	}
	return order
}

const minOrderGap = 1e-6

// NeedsOrderNormalization 检查相邻 order 间隔是否接近浮点精度耗尽。
func (p *LearningPath) NeedsOrderNormalization() bool {
	if len(p.Steps) < 2 {
		return false
	}
	sorted := make([]float64, len(p.Steps))
	for i := range p.Steps {
		sorted[i] = p.Steps[i].Order
	}
	sort.Float64s(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < minOrderGap {
			return true
		}
	}
	return false
}

// NormalizeOrders 维护操作：保持相对顺序不变，将 order 重编为 1..n。
// 检查点的 afterStep 阈值映射到其原阈值之前最后一个步骤的新 order。
func (p *LearningPath) NormalizeOrders() {
	p.SortSteps()
	old := make([]float64, len(p.Steps))
	for i := range p.Steps {
		old[i] = p.Steps[i].Order
		p.Steps[i].Order = float64(i + 1)
	}
	for ci := range p.Checkpoints {
		threshold := p.Checkpoints[ci].AfterStep
		mapped := 0.0
		for i := range old {
			if old[i] <= threshold {
				mapped = float64(i + 1)
			}
		}
		p.Checkpoints[ci].AfterStep = mapped
	}
}

// RecomputeProgress 按已完成步骤占比刷新进度，并依据不变量维护 CompletedAt：
// 当且仅当所有步骤完成且所有检查点达到及格线时才置完成时间。
func (p *LearningPath) RecomputeProgress(now time.Time) {
	total := len(p.Steps)
	if total == 0 {
		p.Progress = 0
	} else {
		done := 0
		for i := range p.Steps {
			if p.Steps[i].Completed {
				done++
			}
		}
		p.Progress = int(math.Round(100 * float64(done) / float64(total)))
	}

	if p.isFullyCompleted() {
		if p.CompletedAt == nil {
			t := now
			p.CompletedAt = &t
		}
	} else {
		p.CompletedAt = nil
	}
}

func (p *LearningPath) isFullyCompleted() bool {
	if len(p.Steps) == 0 {
		return false
	}
	for i := range p.Steps {
		if !p.Steps[i].Completed {
			return false
		}
	}
	for i := range p.Checkpoints {
		cp := &p.Checkpoints[i]
		if !cp.Completed || cp.Score == nil || *cp.Score < cp.PassingScore {
			return false
		}
	}
	return true
}

// CheckpointUnlocked 判断检查点是否可参加：阈值之内的步骤必须全部完成。
func (p *LearningPath) CheckpointUnlocked(cp *Checkpoint) bool {
	for i := range p.Steps {
		if p.Steps[i].Order <= cp.AfterStep && !p.Steps[i].Completed {
			return false
		}
	}
	return true
}

// NextPendingCheckpoint 返回第一个已解锁且未完成的检查点。
func (p *LearningPath) NextPendingCheckpoint() *Checkpoint {
	for i := range p.Checkpoints {
		cp := &p.Checkpoints[i]
		if !cp.Completed && p.CheckpointUnlocked(cp) {
			return cp
		}
	}
	return nil
}

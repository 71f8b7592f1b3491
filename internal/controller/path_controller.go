package controller

import (
	"errors"

	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PathController struct {
	Service *service.PathService
}

func NewPathController(svc *service.PathService) *PathController {
	return &PathController{Service: svc}
}

// respondPathError 按错误分类回应：NotFound/越权/校验错误上抛，其余 500
func respondPathError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPathNotFound),
		errors.Is(err, util.ErrStepNotFound),
		errors.Is(err, util.ErrCheckpointNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrNotPathOwner):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrEmptyTopic),
		errors.Is(err, util.ErrInvalidLevel),
		errors.Is(err, util.ErrInvalidCondition),
		errors.Is(err, util.ErrEmptyAnswers),
		errors.Is(err, util.ErrCheckpointLocked):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary 创建自适应学习路径
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreatePathRequest true "路径信息"
// @Success 201 {object} util.Response
// @Router /api/paths [post]
func (c *PathController) CreatePath(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreatePathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.Service.CreatePath(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Created(ctx, path)
}

// @Summary 获取我的路径列表
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/paths [get]
func (c *PathController) ListPaths(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	paths, err := c.Service.ListPaths(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": paths, "total": len(paths)})
}

// @Summary 获取路径详情
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response
// @Router /api/paths/{id} [get]
func (c *PathController) GetPath(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	path, err := c.Service.GetPath(user.UserID, ctx.Param("id"))
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// @Summary 更新路径字段
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Param body body service.UpdatePathRequest true "字段子集"
// @Success 200 {object} util.Response
// @Router /api/paths/{id} [put]
func (c *PathController) UpdatePath(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdatePathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.Service.UpdatePath(user.UserID, ctx.Param("id"), req)
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// @Summary 标记步骤完成
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Param stepId path string true "步骤ID"
// @Success 200 {object} util.Response
// @Router /api/paths/{id}/steps/{stepId}/complete [post]
func (c *PathController) CompleteStep(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.CompleteStep(user.UserID, ctx.Param("id"), ctx.Param("stepId"))
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 取消步骤完成标记
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Param stepId path string true "步骤ID"
// @Success 200 {object} util.Response
// @Router /api/paths/{id}/steps/{stepId}/reopen [post]
func (c *PathController) ReopenStep(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	path, err := c.Service.ReopenStep(user.UserID, ctx.Param("id"), ctx.Param("stepId"))
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

type SubmitCheckpointRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// @Summary 提交检查点答案
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Param checkpointId path string true "检查点ID"
// @Param body body SubmitCheckpointRequest true "选项下标数组"
// @Success 200 {object} util.Response
// @Router /api/paths/{id}/checkpoints/{checkpointId}/submit [post]
func (c *PathController) SubmitCheckpoint(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitCheckpointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.TakeCheckpoint(user.UserID, ctx.Param("id"), ctx.Param("checkpointId"), req.Answers)
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 按外部成绩触发路径自适应调整
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Param body body service.AdaptPathRequest true "成绩与薄弱点"
// @Success 200 {object} util.Response
// @Router /api/paths/{id}/adapt [post]
func (c *PathController) AdaptPath(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AdaptPathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.Service.AdaptPath(user.UserID, ctx.Param("id"), req)
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// @Summary 创建支线
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Param body body service.CreateBranchRequest true "支线信息"
// @Success 201 {object} util.Response
// @Router /api/paths/{id}/branches [post]
func (c *PathController) CreateBranch(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateBranchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.Service.CreateBranch(ctx.Request.Context(), user.UserID, ctx.Param("id"), req)
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Created(ctx, path)
}

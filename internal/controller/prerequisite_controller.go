package controller

import (
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PrerequisiteController struct {
	Service *service.PrerequisiteService
}

func NewPrerequisiteController(svc *service.PrerequisiteService) *PrerequisiteController {
	return &PrerequisiteController{Service: svc}
}

// @Summary 查询主题先修项
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param topic query string true "主题"
// @Param level query string true "等级 (beginner/intermediate/advanced)"
// @Success 200 {object} util.Response
// @Router /api/prerequisites [get]
func (c *PrerequisiteController) GetPrerequisites(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	topic := ctx.Query("topic")
	level := model.PathLevel(ctx.DefaultQuery("level", string(model.LevelBeginner)))

	prereqs, err := c.Service.IdentifyPrerequisites(ctx.Request.Context(), topic, level)
	if err != nil {
		respondPathError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": prereqs, "total": len(prereqs)})
}

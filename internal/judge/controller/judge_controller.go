// Package controller exposes the judge service over HTTP.
package controller

import (
	"strings"

	"liva/internal/judge/model"
	"liva/internal/judge/result"
	"liva/internal/judge/service"
	"liva/pkg/utils/logger"
	"liva/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxCodeBytes caps candidate source size per submission.
const maxCodeBytes = 256 * 1024

// JudgeController handles judge HTTP endpoints.
type JudgeController struct {
	svc *service.Service
}

// NewJudgeController creates a judge controller.
func NewJudgeController(svc *service.Service) *JudgeController {
	return &JudgeController{svc: svc}
}

// RegisterRoutes mounts the judge endpoints on a router group.
func (jc *JudgeController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/judge", jc.Judge)
}

// judgeRequest is the HTTP submission payload. The full problem definition
// travels inline; this service is stateless.
type judgeRequest struct {
	Problem  *model.Problem `json:"problem" binding:"required"`
	Code     string         `json:"code" binding:"required"`
	Language string         `json:"language" binding:"required"`
	Filter   model.Filter   `json:"filter,omitempty"`
	// IncludeHidden keeps hidden-test outputs in the response. Only trusted
	// internal callers should set it.
	IncludeHidden bool `json:"includeHidden,omitempty"`
}

// Judge runs one submission through the pipeline and returns the judged
// result. Infrastructure failures are folded into the verdict, so the HTTP
// status is 200 for every judgeable request.
func (jc *JudgeController) Judge(c *gin.Context) {
	var req judgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid judge request: "+err.Error())
		return
	}
	if len(req.Code) > maxCodeBytes {
		response.BadRequest(c, "candidate code exceeds the size limit")
		return
	}
	if strings.TrimSpace(req.Problem.ProblemID) == "" {
		response.BadRequest(c, "problem id is required")
		return
	}
	switch req.Filter {
	case "", model.FilterAll, model.FilterVisible:
	default:
		response.BadRequest(c, "filter must be 'all' or 'visible'")
		return
	}

	ctx := c.Request.Context()
	logger.Info(ctx, "judging submission",
		zap.String("problem_id", req.Problem.ProblemID),
		zap.String("language", req.Language),
		zap.String("filter", string(req.Filter)))

	res := jc.svc.Judge(ctx, service.JudgeRequest{
		Problem:       req.Problem,
		CandidateCode: req.Code,
		Language:      req.Language,
		Filter:        req.Filter,
	})
	if !req.IncludeHidden {
		res = result.Redact(res)
	}
	response.Success(c, res)
}

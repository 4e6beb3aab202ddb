package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	member := currentMember(c)
	if member == nil || member.Role != workspacedomain.RoleAdmin {
		AbortWithError(c, workspacedomain.ErrForbidden)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, err := parseOptionalTime(c.Query("start_at"), false)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	endAt, err := parseOptionalTime(c.Query("end_at"), true)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: page,
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
		ActorType:  c.Query("actor_type"),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	notificationdomain "github.com/syncspace/syncspace/internal/notification/domain"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

func (s *Server) ListNotifications(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := notificationdomain.ListNotificationsRequest{Pagination: page}
	if workspaceID, err := parseOptionalSnowflakeID(c.Query("workspace_id")); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	} else if workspaceID != nil {
		req.WorkspaceID = *workspaceID
	}
	if unreadOnly, err := parseOptionalBool(c.Query("unread_only")); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	} else if unreadOnly != nil {
		req.UnreadOnly = *unreadOnly
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	notificationID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.notificationSvc.MarkRead(c.Request.Context(), currentUserID(c), notificationID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	var workspaceID snowflake.ID
	if parsed, err := parseOptionalSnowflakeID(c.Query("workspace_id")); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	} else if parsed != nil {
		workspaceID = *parsed
	}

	if err := s.notificationSvc.MarkAllRead(c.Request.Context(), currentUserID(c), workspaceID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

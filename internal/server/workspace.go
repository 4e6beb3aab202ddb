package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
)

type createWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) CreateWorkspace(c *gin.Context) {
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.Create(c.Request.Context(), currentUserID(c), workspacedomain.CreateWorkspaceRequest{
		Name: req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListWorkspaces(c *gin.Context) {
	items, err := s.workspaceSvc.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": items})
}

type joinWorkspaceRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

func (s *Server) JoinWorkspace(c *gin.Context) {
	var req joinWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.Join(c.Request.Context(), currentUserID(c), req.InviteCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetWorkspace(c *gin.Context) {
	resp, err := s.workspaceSvc.GetByID(c.Request.Context(), currentUserID(c), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type renameWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) RenameWorkspace(c *gin.Context) {
	var req renameWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.Rename(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type memberListItem struct {
	workspacedomain.MemberResponse
	DisplayName string `json:"display_name"`
}

func (s *Server) ListMembers(c *gin.Context) {
	members, err := s.workspaceSvc.ListMembers(c.Request.Context(), currentUserID(c), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	userIDs := make([]snowflake.ID, 0, len(members))
	for _, member := range members {
		if id, err := snowflake.ParseString(member.UserID); err == nil {
			userIDs = append(userIDs, id)
		}
	}
	names, err := s.profileSvc.DisplayNames(c.Request.Context(), userIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]memberListItem, 0, len(members))
	for _, member := range members {
		item := memberListItem{MemberResponse: member}
		if id, err := snowflake.ParseString(member.UserID); err == nil {
			item.DisplayName = names[id]
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"members": items})
}

type updateMemberFlagsRequest struct {
	CanCreateTasks    *bool `json:"can_create_tasks"`
	CanCreateMeetings *bool `json:"can_create_meetings"`
}

func (s *Server) UpdateMemberFlags(c *gin.Context) {
	userID, err := parsePathID(c, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateMemberFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.UpdateMemberFlags(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), userID, workspacedomain.UpdateMemberFlagsRequest{
		CanCreateTasks:    req.CanCreateTasks,
		CanCreateMeetings: req.CanCreateMeetings,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (s *Server) UpdateMemberRole(c *gin.Context) {
	userID, err := parsePathID(c, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.UpdateMemberRole(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), userID, req.Role)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) RemoveMember(c *gin.Context) {
	userID, err := parsePathID(c, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.workspaceSvc.RemoveMember(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

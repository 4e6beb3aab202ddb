package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	taskdomain "github.com/syncspace/syncspace/internal/task/domain"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssigneeID  string     `json:"assignee_id"`
	Deadline    *time.Time `json:"deadline"`
}

func (s *Server) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	assigneeID, err := parseOptionalSnowflakeID(req.AssigneeID)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taskSvc.Create(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), taskdomain.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  assigneeID,
		Deadline:    req.Deadline,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetTask(c *gin.Context) {
	taskID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.taskSvc.Get(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), taskID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListTasks(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := taskdomain.ListTasksRequest{
		Pagination: page,
		Status:     c.Query("status"),
	}
	if assigneeID, err := parseOptionalSnowflakeID(c.Query("assignee_id")); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	} else if assigneeID != nil {
		req.AssigneeID = *assigneeID
	}

	resp, err := s.taskSvc.List(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type taskVersionRequest struct {
	Version int64 `json:"version"`
}

func (s *Server) observedVersion(c *gin.Context) (int64, bool) {
	var req taskVersionRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Version > 0 {
		return req.Version, true
	}
	version, err := parseVersion(c.Query("version"))
	if err != nil {
		AbortWithError(c, err)
		return 0, false
	}
	return version, true
}

func (s *Server) StartTask(c *gin.Context) {
	s.transitionTask(c, s.taskSvc.Start)
}

func (s *Server) RequestTaskCompletion(c *gin.Context) {
	s.transitionTask(c, s.taskSvc.RequestCompletion)
}

func (s *Server) ApproveTask(c *gin.Context) {
	s.transitionTask(c, s.taskSvc.Approve)
}

func (s *Server) RejectTask(c *gin.Context) {
	s.transitionTask(c, s.taskSvc.Reject)
}

type taskTransitionFunc func(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*taskdomain.TaskResponse, error)

func (s *Server) transitionTask(c *gin.Context, transition taskTransitionFunc) {
	taskID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	version, ok := s.observedVersion(c)
	if !ok {
		return
	}

	resp, err := transition(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), taskID, version)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type reassignTaskRequest struct {
	Version    int64  `json:"version" binding:"required"`
	AssigneeID string `json:"assignee_id"`
}

func (s *Server) ReassignTask(c *gin.Context) {
	taskID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req reassignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	assigneeID, err := parseOptionalSnowflakeID(req.AssigneeID)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taskSvc.Reassign(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), taskID, req.Version, assigneeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateTaskRequest struct {
	Version       int64      `json:"version" binding:"required"`
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
}

func (s *Server) UpdateTask(c *gin.Context) {
	taskID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taskSvc.UpdateDetails(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), taskID, req.Version, taskdomain.UpdateTaskRequest{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteTask(c *gin.Context) {
	taskID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	version, err := parseVersion(c.Query("version"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.taskSvc.Delete(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), taskID, version); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

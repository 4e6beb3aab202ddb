package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ideadomain "github.com/syncspace/syncspace/internal/idea/domain"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type createIdeaRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) CreateIdea(c *gin.Context) {
	var req createIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ideaSvc.Create(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), ideadomain.CreateIdeaRequest{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetIdea(c *gin.Context) {
	ideaID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.ideaSvc.Get(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), ideaID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListIdeas(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ideaSvc.List(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), ideadomain.ListIdeasRequest{
		Pagination: page,
		Status:     c.Query("status"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateIdeaRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (s *Server) UpdateIdea(c *gin.Context) {
	ideaID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ideaSvc.Update(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), ideaID, ideadomain.UpdateIdeaRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteIdea(c *gin.Context) {
	ideaID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.ideaSvc.Delete(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), ideaID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

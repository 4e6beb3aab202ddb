package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	meetingdomain "github.com/syncspace/syncspace/internal/meeting/domain"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type createMeetingRequest struct {
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description"`
	Agenda         string    `json:"agenda"`
	Location       string    `json:"location"`
	MeetingLink    string    `json:"meeting_link"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	ParticipantIDs []string  `json:"participant_ids"`
}

func (s *Server) CreateMeeting(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	participantIDs, err := parseIDList(req.ParticipantIDs)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meetingSvc.Create(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), meetingdomain.CreateMeetingRequest{
		Title:          req.Title,
		Description:    req.Description,
		Agenda:         req.Agenda,
		Location:       req.Location,
		MeetingLink:    req.MeetingLink,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetMeeting(c *gin.Context) {
	meetingID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.meetingSvc.Get(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), meetingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListMeetings(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	upcomingOnly, err := parseOptionalBool(c.Query("upcoming_only"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := meetingdomain.ListMeetingsRequest{Pagination: page}
	if upcomingOnly != nil {
		req.UpcomingOnly = *upcomingOnly
	}

	resp, err := s.meetingSvc.List(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateMeetingRequest struct {
	Version        int64      `json:"version" binding:"required"`
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Agenda         *string    `json:"agenda"`
	Location       *string    `json:"location"`
	MeetingLink    *string    `json:"meeting_link"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	ParticipantIDs *[]string  `json:"participant_ids"`
}

func (s *Server) UpdateMeeting(c *gin.Context) {
	meetingID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := meetingdomain.UpdateMeetingRequest{
		Title:       req.Title,
		Description: req.Description,
		Agenda:      req.Agenda,
		Location:    req.Location,
		MeetingLink: req.MeetingLink,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if req.ParticipantIDs != nil {
		participantIDs, err := parseIDList(*req.ParticipantIDs)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		update.ParticipantIDs = &participantIDs
	}

	resp, err := s.meetingSvc.Update(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), meetingID, req.Version, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteMeeting(c *gin.Context) {
	meetingID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	version, err := parseVersion(c.Query("version"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.meetingSvc.Delete(c.Request.Context(), currentUserID(c), currentWorkspaceID(c), meetingID, version); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDList(raw []string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		parsed, err := parseOptionalSnowflakeID(value)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			ids = append(ids, *parsed)
		}
	}
	return ids, nil
}

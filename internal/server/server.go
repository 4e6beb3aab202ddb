package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/syncspace/syncspace/internal/audit"
	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	"github.com/syncspace/syncspace/internal/config"
	"github.com/syncspace/syncspace/internal/idea"
	ideadomain "github.com/syncspace/syncspace/internal/idea/domain"
	"github.com/syncspace/syncspace/internal/invitecode"
	"github.com/syncspace/syncspace/internal/meeting"
	meetingdomain "github.com/syncspace/syncspace/internal/meeting/domain"
	"github.com/syncspace/syncspace/internal/notification"
	notificationdomain "github.com/syncspace/syncspace/internal/notification/domain"
	"github.com/syncspace/syncspace/internal/observability"
	obsmiddleware "github.com/syncspace/syncspace/internal/observability/logger"
	obsmetrics "github.com/syncspace/syncspace/internal/observability/metrics"
	obstracing "github.com/syncspace/syncspace/internal/observability/tracing"
	"github.com/syncspace/syncspace/internal/profile"
	profiledomain "github.com/syncspace/syncspace/internal/profile/domain"
	"github.com/syncspace/syncspace/internal/ratelimit"
	"github.com/syncspace/syncspace/internal/task"
	taskdomain "github.com/syncspace/syncspace/internal/task/domain"
	"github.com/syncspace/syncspace/internal/workspace"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	notification.Module,
	invitecode.Module,
	ratelimit.Module,
	workspace.Module,
	task.Module,
	meeting.Module,
	idea.Module,
	profile.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	workspaceSvc    workspacedomain.Service
	taskSvc         taskdomain.Service
	meetingSvc      meetingdomain.Service
	ideaSvc         ideadomain.Service
	notificationSvc notificationdomain.Service
	auditSvc        auditdomain.Service
	profileSvc      profiledomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	WorkspaceSvc    workspacedomain.Service
	TaskSvc         taskdomain.Service
	MeetingSvc      meetingdomain.Service
	IdeaSvc         ideadomain.Service
	NotificationSvc notificationdomain.Service
	AuditSvc        auditdomain.Service
	ProfileSvc      profiledomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		workspaceSvc:    p.WorkspaceSvc,
		taskSvc:         p.TaskSvc,
		meetingSvc:      p.MeetingSvc,
		ideaSvc:         p.IdeaSvc,
		notificationSvc: p.NotificationSvc,
		auditSvc:        p.AuditSvc,
		profileSvc:      p.ProfileSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Workspaces --------
	api.POST("/workspaces", s.CreateWorkspace)
	api.GET("/workspaces", s.ListWorkspaces)
	api.POST("/workspaces/join", s.JoinWorkspace)

	// -------- Profile --------
	api.GET("/profile", s.GetProfile)
	api.PUT("/profile", s.UpsertProfile)

	// -------- Notifications --------
	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)
	api.POST("/notifications/read-all", s.MarkAllNotificationsRead)

	ws := api.Group("/workspaces/:workspaceId", s.WorkspaceContext())
	{
		ws.GET("", s.GetWorkspace)
		ws.PATCH("", s.RenameWorkspace)

		// -------- Members --------
		ws.GET("/members", s.ListMembers)
		ws.PATCH("/members/:userId/flags", s.UpdateMemberFlags)
		ws.PATCH("/members/:userId/role", s.UpdateMemberRole)
		ws.DELETE("/members/:userId", s.RemoveMember)

		// -------- Tasks --------
		ws.GET("/tasks", s.ListTasks)
		ws.POST("/tasks", s.CreateTask)
		ws.GET("/tasks/:id", s.GetTask)
		ws.PATCH("/tasks/:id", s.UpdateTask)
		ws.DELETE("/tasks/:id", s.DeleteTask)
		ws.POST("/tasks/:id/start", s.StartTask)
		ws.POST("/tasks/:id/request-completion", s.RequestTaskCompletion)
		ws.POST("/tasks/:id/approve", s.ApproveTask)
		ws.POST("/tasks/:id/reject", s.RejectTask)
		ws.POST("/tasks/:id/assign", s.ReassignTask)

		// -------- Meetings --------
		ws.GET("/meetings", s.ListMeetings)
		ws.POST("/meetings", s.CreateMeeting)
		ws.GET("/meetings/:id", s.GetMeeting)
		ws.PATCH("/meetings/:id", s.UpdateMeeting)
		ws.DELETE("/meetings/:id", s.DeleteMeeting)

		// -------- Ideas --------
		ws.GET("/ideas", s.ListIdeas)
		ws.POST("/ideas", s.CreateIdea)
		ws.GET("/ideas/:id", s.GetIdea)
		ws.PATCH("/ideas/:id", s.UpdateIdea)
		ws.DELETE("/ideas/:id", s.DeleteIdea)

		// -------- Audit --------
		ws.GET("/audit-logs", s.ListAuditLogs)
	}
}

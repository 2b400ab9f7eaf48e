// Package api exposes the session manager and the gateway client to a local UI over HTTP.
// Acting user ids are always taken from the session, never from the request.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"socialclient/internal/gateway"
	"socialclient/internal/models"
	"socialclient/internal/session"
	"socialclient/internal/worker"
)

// Sessions is the session manager as seen by the handlers.
type Sessions interface {
	Current() *models.User
	Login(ctx context.Context, phone, password string) (*models.User, error)
	Register(ctx context.Context, phone, password, fullName string) (*models.User, error)
	AdminLogin(ctx context.Context, phone, password string) (*models.User, error)
	Logout(ctx context.Context) error
	UpdateFields(ctx context.Context, patch models.UserPatch) error
	UpdateProfile(ctx context.Context, update gateway.ProfileUpdate) (*models.User, error)
	Refresh(ctx context.Context) (*models.User, error)
}

// Remote is the gateway client as seen by the handlers.
type Remote interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	Feed(ctx context.Context) ([]models.Post, error)
	UserPosts(ctx context.Context, userID int64) ([]models.Post, error)
	CreatePost(ctx context.Context, userID int64, content string) (*models.CreatedPost, error)
	LikePost(ctx context.Context, userID, postID int64) (*models.ActionResult, error)
	CommentPost(ctx context.Context, userID, postID int64, content string) (*models.CreatedComment, error)
	Chats(ctx context.Context, userID int64) ([]models.Chat, error)
	CreateChat(ctx context.Context, userID, otherID int64) (int64, error)
	Messages(ctx context.Context, chatID, userID int64) ([]models.Message, error)
	SendMessage(ctx context.Context, userID, chatID int64, content string) (*models.SentMessage, error)
	Notifications(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	AdminStats(ctx context.Context) (*models.AdminStats, error)
	AdminUsers(ctx context.Context) ([]models.AdminUserRecord, error)
	BanUser(ctx context.Context, adminID, userID int64) (*models.ActionResult, error)
	UnbanUser(ctx context.Context, adminID, userID int64) (*models.ActionResult, error)
	GrantAdmin(ctx context.Context, adminID, userID int64) (*models.ActionResult, error)
	RevokeAdmin(ctx context.Context, adminID, userID int64) (*models.ActionResult, error)
	UpdateUser(ctx context.Context, adminID, userID int64, fullName, username *string) (*models.ActionResult, error)
}

// Handler wires HTTP routes to the session manager, the gateway client and the fan-out pool.
type Handler struct {
	sessions Sessions
	remote   Remote
	pool     *worker.Pool
	csrf     csrfConfig
	log      logrus.FieldLogger
}

// NewHandler constructs a Handler instance.
func NewHandler(sessions Sessions, remote Remote, pool *worker.Pool, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		sessions: sessions,
		remote:   remote,
		pool:     pool,
		csrf:     defaultCSRF(),
		log:      log,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/session", h.getSession)
	api.POST("/session/login", h.login)
	api.POST("/session/register", h.register)
	api.POST("/admin/login", h.adminLogin)

	protected := api.Group("")
	protected.Use(h.CSRFMiddleware())
	protected.POST("/session/logout", h.logout)

	authed := protected.Group("")
	authed.Use(h.requireSession())
	authed.PATCH("/session", h.updateSession)
	authed.PUT("/profile", h.updateProfile)
	authed.POST("/profile/refresh", h.refreshProfile)
	authed.GET("/users/:id", h.getUser)
	authed.GET("/users/:id/posts", h.userPosts)
	authed.GET("/feed", h.feed)
	authed.GET("/home", h.home)
	authed.POST("/posts", h.createPost)
	authed.POST("/posts/:id/like", h.likePost)
	authed.POST("/posts/:id/comments", h.commentPost)
	authed.GET("/chats", h.listChats)
	authed.POST("/chats", h.createChat)
	authed.GET("/chats/:id/messages", h.listMessages)
	authed.POST("/chats/:id/messages", h.sendMessage)
	authed.GET("/notifications", h.listNotifications)
	authed.POST("/notifications/read-all", h.markAllRead)
	authed.POST("/notifications/:id/read", h.markRead)

	admin := authed.Group("/admin")
	admin.Use(h.requireAdmin())
	admin.GET("/dashboard", h.adminDashboard)
	admin.POST("/users/:id/ban", h.adminAction(models.AdminBan))
	admin.POST("/users/:id/unban", h.adminAction(models.AdminUnban))
	admin.POST("/users/:id/grant-admin", h.adminAction(models.AdminGrantAdmin))
	admin.POST("/users/:id/revoke-admin", h.adminAction(models.AdminRevokeAdmin))
	admin.PUT("/users/:id", h.adminUpdateUser)
}

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *Handler) getSession(c *gin.Context) {
	if _, err := c.Cookie(h.csrf.cookieName); err != nil {
		if err := h.issueCSRFCookie(c); err != nil {
			respondError(c, http.StatusInternalServerError, "issue csrf token failed")
			return
		}
	}
	user := h.sessions.Current()
	c.JSON(http.StatusOK, gin.H{"authenticated": user != nil, "user": user})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.sessions.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		h.fail(c, err, session.FallbackLogin)
		return
	}
	h.authenticated(c, user)
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.sessions.Register(c.Request.Context(), req.Phone, req.Password, req.FullName)
	if err != nil {
		h.fail(c, err, session.FallbackRegister)
		return
	}
	h.authenticated(c, user)
}

// authenticated rotates the CSRF cookie and answers with the new session user.
func (h *Handler) authenticated(c *gin.Context, user *models.User) {
	if err := h.issueCSRFCookie(c); err != nil {
		respondError(c, http.StatusInternalServerError, "issue csrf token failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.sessions.AdminLogin(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		h.fail(c, err, gateway.AccessDeniedMessage)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.log.WithError(err).Warn("logout left a persisted record behind")
		respondError(c, http.StatusInternalServerError, "Ошибка выхода")
		return
	}
	c.JSON(http.StatusOK, models.OK())
}

func (h *Handler) updateSession(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	// The admin flag only changes through Refresh.
	patch.IsAdmin = nil
	if err := h.sessions.UpdateFields(c.Request.Context(), patch); err != nil {
		h.fail(c, err, "Ошибка сохранения")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": h.sessions.Current()})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var update gateway.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.sessions.UpdateProfile(c.Request.Context(), update)
	if err != nil {
		h.fail(c, err, "Ошибка обновления профиля")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) refreshProfile(c *gin.Context) {
	user, err := h.sessions.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Ошибка загрузки профиля")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// fail logs err and answers with the status derived from its class.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	entry := h.log.WithFields(logrus.Fields{"path": c.FullPath(), "status": status}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Warn("request failed")
	} else {
		entry.Debug("request rejected")
	}
	respondError(c, status, session.ErrorMessage(err, fallback))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, worker.ErrPoolBusy):
		return http.StatusTooManyRequests
	}
	return gateway.HTTPStatus(err)
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, models.Failure(msg))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

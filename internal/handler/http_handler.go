package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/audit"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/service"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/middleware"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/response"
)

// HTTPHandler serves the REST surface: auth, channels and message history.
type HTTPHandler struct {
	users    service.UserService
	channels service.ChannelService
	messages service.MessageService
	auth     *middleware.AuthMiddleware

	cookieMaxAge int
	cookieSecure bool
}

func NewHTTPHandler(
	users service.UserService,
	channels service.ChannelService,
	messages service.MessageService,
	auth *middleware.AuthMiddleware,
	cookieMaxAge int,
	cookieSecure bool,
) *HTTPHandler {
	return &HTTPHandler{
		users:        users,
		channels:     channels,
		messages:     messages,
		auth:         auth,
		cookieMaxAge: cookieMaxAge,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes sets up all API routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	protected := api.Group("")
	protected.Use(h.auth.RequireAuth())
	{
		protected.GET("/channels", h.ListChannels)
		protected.POST("/channels", h.CreateChannel)
		protected.POST("/channels/:id/join", h.JoinChannel)
		protected.POST("/channels/:id/leave", h.LeaveChannel)
		protected.GET("/messages/:channelId", h.ListMessages)
		protected.POST("/messages/:channelId", h.CreateMessage)
	}
}

func (h *HTTPHandler) Signup(c *gin.Context) {
	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.users.Signup(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			response.Conflict(c, "Email already registered")
			return
		}
		response.InternalError(c, "Failed to create user")
		return
	}

	h.setSessionCookie(c, result.Token)
	response.Created(c, result)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "Invalid email or password")
			return
		}
		response.InternalError(c, "Failed to log in")
		return
	}

	h.setSessionCookie(c, result.Token)
	response.Success(c, result)
}

func (h *HTTPHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cookieSecure, true)
	audit.Log(c.Request.Context(), audit.ActionLogout, middleware.GetUserID(c), "user logged out")
	response.Success(c, gin.H{"message": "logged out"})
}

func (h *HTTPHandler) ListChannels(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list channels")
		response.InternalError(c, "Failed to list channels")
		return
	}
	response.Success(c, channels)
}

func (h *HTTPHandler) CreateChannel(c *gin.Context) {
	var req domain.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	channel, err := h.channels.Create(c.Request.Context(), req.Name, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrChannelExists) {
			response.Conflict(c, "Channel name already taken")
			return
		}
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to create channel")
		response.InternalError(c, "Failed to create channel")
		return
	}
	response.Created(c, channel)
}

func (h *HTTPHandler) JoinChannel(c *gin.Context) {
	channelID := c.Param("id")

	joined, err := h.channels.Join(c.Request.Context(), channelID, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			response.NotFound(c, "Channel not found")
			return
		}
		log.Ctx(c.Request.Context()).Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to join channel")
		response.InternalError(c, "Failed to join channel")
		return
	}
	response.Success(c, gin.H{"joined": joined})
}

func (h *HTTPHandler) LeaveChannel(c *gin.Context) {
	channelID := c.Param("id")

	if err := h.channels.Leave(c.Request.Context(), channelID, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			response.NotFound(c, "Channel not found")
			return
		}
		log.Ctx(c.Request.Context()).Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to leave channel")
		response.InternalError(c, "Failed to leave channel")
		return
	}
	response.Success(c, gin.H{"left": true})
}

func (h *HTTPHandler) ListMessages(c *gin.Context) {
	channelID := c.Param("channelId")

	page := 1
	if p := c.Query("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "Invalid page parameter")
			return
		}
		page = parsed
	}

	result, err := h.messages.ListByChannel(c.Request.Context(), channelID, page)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to list messages")
		response.InternalError(c, "Failed to list messages")
		return
	}
	response.Success(c, result)
}

func (h *HTTPHandler) CreateMessage(c *gin.Context) {
	channelID := c.Param("channelId")

	var req domain.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), channelID, middleware.GetUserID(c), req.Text)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to create message")
		response.InternalError(c, "Failed to create message")
		return
	}
	response.Created(c, msg)
}

func (h *HTTPHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.TokenCookie, token, h.cookieMaxAge, "/", "", h.cookieSecure, true)
}

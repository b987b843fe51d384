package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/service"
	"github.com/voxhire/interview-service/pkg/log"
	"github.com/voxhire/interview-service/pkg/middleware"
	"github.com/voxhire/interview-service/pkg/response"
)

// maxAudioUploadBytes bounds the accepted audio upload size.
const maxAudioUploadBytes = 25 << 20

// Handler handles HTTP requests.
type Handler struct {
	userService       service.UserService
	roomService       service.RoomService
	membershipService service.MembershipService
	relayService      service.RelayService
	authMiddleware    *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	userService service.UserService,
	roomService service.RoomService,
	membershipService service.MembershipService,
	relayService service.RelayService,
	authMiddleware *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		userService:       userService,
		roomService:       roomService,
		membershipService: membershipService,
		relayService:      relayService,
		authMiddleware:    authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.Refresh)
		}

		users := api.Group("/users")
		{
			users.GET("/me", h.authMiddleware.RequireAuth(), h.GetProfile)
		}

		rooms := api.Group("/rooms")
		{
			// Public routes
			rooms.GET("", h.ListRooms)
			rooms.GET("/:id", h.GetRoom)
			rooms.GET("/:id/messages", h.GetRoomMessages)

			// Protected routes
			rooms.POST("", h.authMiddleware.RequireAuth(), h.CreateRoom)
			rooms.PATCH("/:id", h.authMiddleware.RequireAuth(), h.UpdateRoom)
			rooms.DELETE("/:id", h.authMiddleware.RequireAuth(), h.DeleteRoom)
			rooms.POST("/:id/join", h.authMiddleware.RequireAuth(), h.JoinRoom)
			rooms.POST("/:id/leave", h.authMiddleware.RequireAuth(), h.LeaveRoom)
			rooms.POST("/:id/messages", h.authMiddleware.RequireAuth(), h.PostMessage)
			rooms.POST("/:id/bot-responses", h.authMiddleware.RequireAuth(), h.PostBotResponse)
			rooms.POST("/:id/relay", h.authMiddleware.RequireAuth(), h.RelayMessage)
			rooms.POST("/:id/audio", h.authMiddleware.RequireAuth(), h.RelayAudio)
		}
	}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// Register creates a new user account.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind register request")
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.userService.Register(ctx, &req)
	if err != nil {
		h.respondError(c, err, "failed to register user")
		return
	}

	response.Created(c, auth)
}

// Login checks credentials and issues tokens.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind login request")
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.userService.Login(ctx, &req)
	if err != nil {
		h.respondError(c, err, "failed to log in")
		return
	}

	response.Success(c, auth)
}

// Refresh redeems a refresh token for a new token pair.
func (h *Handler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind refresh request")
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.userService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.respondError(c, err, "failed to refresh tokens")
		return
	}

	response.Success(c, auth)
}

// GetProfile returns the authenticated user's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()

	userID := middleware.GetUserID(c)
	profile, err := h.userService.GetProfile(ctx, domain.UserID(userID))
	if err != nil {
		h.respondError(c, err, "failed to get profile")
		return
	}

	response.Success(c, profile)
}

// CreateRoom creates a new room owned by the caller.
func (h *Handler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create room request")
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(ctx, domain.UserID(middleware.GetUserID(c)), &req)
	if err != nil {
		h.respondError(c, err, "failed to create room")
		return
	}

	response.Created(c, room)
}

// GetRoom retrieves a room by ID.
func (h *Handler) GetRoom(c *gin.Context) {
	ctx := c.Request.Context()

	room, err := h.roomService.GetRoom(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get room")
		return
	}

	response.Success(c, room)
}

// ListRooms lists rooms with pagination.
func (h *Handler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rooms, err := h.roomService.ListRooms(ctx, &req)
	if err != nil {
		h.respondError(c, err, "failed to list rooms")
		return
	}

	response.Success(c, rooms)
}

// UpdateRoom updates a room's mutable fields.
func (h *Handler) UpdateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind update room request")
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.UpdateRoom(ctx, domain.UserID(middleware.GetUserID(c)), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err, "failed to update room")
		return
	}

	response.Success(c, room)
}

// DeleteRoom soft-deletes a room.
func (h *Handler) DeleteRoom(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.roomService.DeleteRoom(ctx, domain.UserID(middleware.GetUserID(c)), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete room")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// JoinRoom adds the caller to the room's member set.
func (h *Handler) JoinRoom(c *gin.Context) {
	ctx := c.Request.Context()

	room, user, err := h.membershipService.Join(ctx, middleware.GetToken(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to join room")
		return
	}

	response.Success(c, gin.H{"room": room, "user": user})
}

// LeaveRoom removes the caller from the room's member set.
func (h *Handler) LeaveRoom(c *gin.Context) {
	ctx := c.Request.Context()

	room, user, err := h.membershipService.Leave(ctx, middleware.GetToken(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to leave room")
		return
	}

	response.Success(c, gin.H{"room": room, "user": user})
}

// PostMessage persists a message from the caller into the room.
func (h *Handler) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind post message request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.relayService.PostMessage(ctx, middleware.GetToken(c), c.Param("id"), req.Text)
	if err != nil {
		h.respondError(c, err, "failed to post message")
		return
	}

	response.Created(c, msg)
}

// PostBotResponse persists a bot reply.
func (h *Handler) PostBotResponse(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.PostBotResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind bot response request")
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.relayService.PostBotResponse(ctx, middleware.GetToken(c), c.Param("id"), req.Reply)
	if err != nil {
		h.respondError(c, err, "failed to post bot response")
		return
	}

	response.Created(c, resp)
}

// RelayMessage persists the caller's message and generates a bot reply.
func (h *Handler) RelayMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind relay request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.relayService.RelayAndGenerate(ctx, middleware.GetToken(c), c.Param("id"), req.Text)
	if err != nil {
		h.respondError(c, err, "failed to relay message")
		return
	}

	response.Created(c, result)
}

// RelayAudio transcribes an uploaded recording and relays the text.
func (h *Handler) RelayAudio(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		l.Warn().Err(err).Msg("failed to read audio upload")
		response.BadRequest(c, "audio file is required")
		return
	}
	if fileHeader.Size > maxAudioUploadBytes {
		response.BadRequest(c, "audio file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		l.Error().Err(err).Msg("failed to open audio upload")
		response.InternalError(c, "failed to read audio upload")
		return
	}
	defer file.Close()

	result, err := h.relayService.TranscribeAndRelay(ctx, domain.UserID(middleware.GetUserID(c)), c.Param("id"), file, fileHeader.Filename)
	if err != nil {
		h.respondError(c, err, "failed to transcribe audio")
		return
	}

	response.Created(c, result)
}

// GetRoomMessages returns a page of a room's messages.
func (h *Handler) GetRoomMessages(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	history, err := h.relayService.GetRoomMessages(ctx, c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err, "failed to get room messages")
		return
	}

	response.Success(c, history)
}

// respondError maps a classified error to its HTTP response. Unclassified
// errors are logged and surfaced as internal errors with the fallback
// message.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		response.Unauthorized(c, err.Error())
	case apperr.KindNotFound:
		response.NotFound(c, err.Error())
	case apperr.KindConflict:
		response.Conflict(c, err.Error())
	case apperr.KindInvalidState:
		response.UnprocessableEntity(c, err.Error())
	case apperr.KindForbidden:
		response.Forbidden(c, err.Error())
	case apperr.KindUpstream:
		response.BadGateway(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(fallback)
		response.InternalError(c, fallback)
	}
}

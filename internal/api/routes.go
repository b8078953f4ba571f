package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/internal/auth"
	"github.com/cheekoai/cheeko-server/internal/websocket"
	"github.com/cheekoai/cheeko-server/usecase"
)

// Server holds the services the HTTP handlers dispatch into.
type Server struct {
	users      *usecase.UserService
	activation *usecase.ActivationService
	toys       *usecase.ToyService
	profiles   *usecase.ProfileService
	hub        *websocket.Hub
	logger     *zap.Logger
}

// NewServer creates a new API server.
func NewServer(
	users *usecase.UserService,
	activation *usecase.ActivationService,
	toys *usecase.ToyService,
	profiles *usecase.ProfileService,
	hub *websocket.Hub,
	logger *zap.Logger,
) *Server {
	return &Server{
		users:      users,
		activation: activation,
		toys:       toys,
		profiles:   profiles,
		hub:        hub,
		logger:     logger,
	}
}

// Register initializes all API routes
func (s *Server) Register(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "cheeko-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// User Management APIs
	v1.POST("/users/register", s.userRegister)
	v1.POST("/users/login", s.userLogin)

	// Device APIs
	v1.POST("/device/auth", s.deviceAuth)
	v1.POST("/device/release", s.releaseDevice, UserAuth(s.logger))

	// Toy APIs (authenticated)
	toys := v1.Group("/toys", UserAuth(s.logger))
	toys.GET("", s.listToys)
	toys.POST("/activate", s.activateToy)
	toys.GET("/:id", s.getToy)
	toys.PATCH("/:id", s.updateToy)
	toys.DELETE("/:id", s.unbindToy)
	toys.POST("/:id/finalize", s.finalizeToy)

	// Parent Profile APIs (authenticated)
	profile := v1.Group("/profile", UserAuth(s.logger))
	profile.GET("", s.getProfile)
	profile.PUT("", s.saveProfile)

	// WebSocket endpoint streaming toy lifecycle events
	e.GET("/ws", s.statusStream, UserAuth(s.logger))
}

func (s *Server) userRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	user, err := s.users.Register(c.Request().Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "email_taken",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}

	return s.authResponse(c, user)
}

func (s *Server) userLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	user, err := s.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "authentication_failed",
				Message: err.Error(),
			})
		}
		s.logger.Error("Login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred. Please try again.",
		})
	}

	return s.authResponse(c, user)
}

func (s *Server) authResponse(c echo.Context, user *entities.User) error {
	token, err := auth.GenerateUserToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to generate user token",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(auth.UserTokenTTL),
		User:      user,
	})
}

func (s *Server) deviceAuth(c echo.Context) error {
	var req DeviceAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.MacID == "" || req.ActivationCode == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Mac id and activation code are required",
		})
	}

	cred, err := s.activation.AuthenticateDevice(c.Request().Context(), req.MacID, req.ActivationCode)
	if err != nil {
		s.logger.Warn("Device authentication failed",
			zap.String("mac_id", req.MacID),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, err := auth.GenerateDeviceToken(cred.MacID)
	if err != nil {
		s.logger.Error("Failed to generate device token",
			zap.String("mac_id", cred.MacID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(auth.DeviceTokenTTL),
		MacID:     cred.MacID,
	})
}

// releaseDevice retries the release step of an unbind that deleted the toy
// but left the device flag claiming active. The mac id comes from the
// release-fault response body. Releasing an already-inactive device succeeds.
func (s *Server) releaseDevice(c echo.Context) error {
	var req ReleaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.MacID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Mac id is required",
		})
	}

	if err := s.toys.ReleaseDevice(c.Request().Context(), currentSession(c), req.MacID); err != nil {
		return s.workflowError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) activateToy(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	toy, err := s.activation.Activate(c.Request().Context(), currentSession(c), req.Code)
	if err != nil {
		return s.workflowError(c, err)
	}

	return c.JSON(http.StatusCreated, toy)
}

func (s *Server) finalizeToy(c echo.Context) error {
	toy, err := s.activation.RetryFinalize(c.Request().Context(), currentSession(c), c.Param("id"))
	if err != nil {
		return s.workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toy)
}

func (s *Server) listToys(c echo.Context) error {
	toys, err := s.toys.List(c.Request().Context(), currentSession(c))
	if err != nil {
		return s.workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toys)
}

func (s *Server) getToy(c echo.Context) error {
	toy, err := s.toys.Get(c.Request().Context(), currentSession(c), c.Param("id"))
	if err != nil {
		return s.workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toy)
}

func (s *Server) updateToy(c echo.Context) error {
	var patch entities.ToyPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	toy, err := s.toys.Update(c.Request().Context(), currentSession(c), c.Param("id"), patch)
	if err != nil {
		return s.workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toy)
}

func (s *Server) unbindToy(c echo.Context) error {
	if err := s.toys.Unbind(c.Request().Context(), currentSession(c), c.Param("id")); err != nil {
		return s.workflowError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getProfile(c echo.Context) error {
	profile, err := s.profiles.Get(c.Request().Context(), currentSession(c))
	if err != nil {
		return s.workflowError(c, err)
	}
	if profile == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "profile_not_found",
			Message: "No profile saved yet",
		})
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) saveProfile(c echo.Context) error {
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	profile, err := s.profiles.Save(c.Request().Context(), currentSession(c),
		req.ParentName, req.ParentEmail, req.ParentPhoneNumber)
	if err != nil {
		return s.workflowError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) statusStream(c echo.Context) error {
	session := currentSession(c)
	return websocket.Serve(s.hub, c, session.UserID, s.logger)
}

// workflowError maps a workflow fault to an HTTP status and response body.
// Partial-failure faults keep their mac/toy context in the body so clients
// can retry the remaining step.
func (s *Server) workflowError(c echo.Context, err error) error {
	var we *usecase.WorkflowError
	if !errors.As(err, &we) {
		s.logger.Error("Unclassified workflow error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred. Please try again.",
		})
	}

	status := http.StatusInternalServerError
	switch we.Kind {
	case usecase.FaultInvalidCode, usecase.FaultInvalidOption:
		status = http.StatusBadRequest
	case usecase.FaultUnauthenticated:
		status = http.StatusUnauthorized
	case usecase.FaultCodeNotFound, usecase.FaultNotOwned:
		status = http.StatusNotFound
	case usecase.FaultAlreadyActivated, usecase.FaultAlreadyRegistered:
		status = http.StatusConflict
	case usecase.FaultLookupFailed, usecase.FaultBindFailed, usecase.FaultFinalizeFailed,
		usecase.FaultDeleteFailed, usecase.FaultReleaseFailed, usecase.FaultStoreUnavailable:
		status = http.StatusBadGateway
	}

	return c.JSON(status, ErrorResponse{
		Error:   string(we.Kind),
		Message: we.Message(),
		MacID:   we.MacID,
		ToyID:   we.ToyID,
	})
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"geoassist/internal/entities"
	"geoassist/internal/infrastructure"
	"geoassist/internal/interfaces"
	"geoassist/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

type Handler struct {
	assistant *usecases.Assistant
	auth      *usecases.AuthUsecase
	sessions  *infrastructure.SessionManager
	log       zerolog.Logger
}

func NewHandler(assistant *usecases.Assistant, auth *usecases.AuthUsecase, sessions *infrastructure.SessionManager, log zerolog.Logger) *Handler {
	return &Handler{
		assistant: assistant,
		auth:      auth,
		sessions:  sessions,
		log:       log,
	}
}

func SetupRoutes(r *gin.Engine, assistant *usecases.Assistant, auth *usecases.AuthUsecase, sessions *infrastructure.SessionManager, store interfaces.AccountStore, middleware *Middleware, log zerolog.Logger) {
	h := NewHandler(assistant, auth, sessions, log)
	adminHandler := NewAdminHandler(store, auth)

	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size
	r.Use(middleware.CORSMiddleware())

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// Protected Routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.POST("/auth/logout", h.Logout)
		api.GET("/gate", h.GateStatus)
		api.POST("/prompt", h.SubmitPrompt)
		api.POST("/payment/initiate", h.InitiatePayment)
		api.POST("/payment", h.SubmitPayment)
		api.GET("/map/qr", h.MapQRCode)
	}

	// Admin-only Routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id", adminHandler.UpdateUser)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.POST("/users/:id/reset-usage", adminHandler.ResetUsage)
	}
}

// session resolves the live session for an authenticated request. Sessions are
// in-memory, so a token can outlive its session after a restart or a logout.
func (h *Handler) session(c *gin.Context) *infrastructure.Session {
	sid, _ := c.Get("sid")
	id, _ := sid.(string)
	session := h.sessions.Get(id)
	if session == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
		return nil
	}
	return session
}

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidUsername(req.Username) || len(req.Password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password (min 6 chars)"})
		return
	}

	id, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, entities.ErrDuplicateUsername) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered", "user_id": id})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, entities.ErrAuthenticationFailed) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "state": session.State})
}

func (h *Handler) Logout(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	h.assistant.Gate().Logout(session)
	h.sessions.Delete(session.ID)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *Handler) GateStatus(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	status, err := h.assistant.Gate().Status(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read gate status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) SubmitPrompt(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	prompt := TruncateString(SanitizeString(req.Prompt), MaxPromptLength)

	result, err := h.assistant.HandlePrompt(c.Request.Context(), session, prompt)
	switch {
	case errors.Is(err, entities.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"state": session.State,
			"error": "Free quota exhausted, please pay to continue",
		})
	case errors.Is(err, entities.ErrGeocodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
	case errors.Is(err, entities.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service failure"})
	case err != nil:
		h.log.Error().Err(err).Msg("prompt handling failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prompt handling failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"state": session.State, "result": result})
	}
}

func (h *Handler) InitiatePayment(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	if err := h.assistant.Gate().InitiatePayment(session); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.State})
}

func (h *Handler) SubmitPayment(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req struct {
		Username     string  `json:"username"`
		CardNumber   string  `json:"card_number"`
		Amount       float64 `json:"amount"`
		SecurityCode string  `json:"security_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.assistant.Gate().SubmitPayment(c.Request.Context(), session, req.Username, req.CardNumber, req.SecurityCode, req.Amount)
	switch {
	case errors.Is(err, entities.ErrPaymentUsernameMismatch),
		errors.Is(err, entities.ErrPaymentInvalidCard):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "paid", "state": session.State})
	}
}

// MapQRCode returns a QR code PNG for a shareable map link.
func (h *Handler) MapQRCode(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.String(http.StatusBadRequest, "lat and lon query parameters required")
		return
	}

	place := entities.Place{Name: c.Query("name"), Lat: lat, Lon: lon}
	png, err := qrcode.Encode(place.MapURL(), qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

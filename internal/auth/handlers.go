package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/frequency/internal/apperr"
)

// Handler serves the /auth routes.
type Handler struct {
	svc    *Service
	google OAuthProvider
	appURL string
}

// NewHandler creates a Handler. google may be nil when OAuth is not configured.
func NewHandler(svc *Service, google OAuthProvider, appURL string) *Handler {
	return &Handler{svc: svc, google: google, appURL: appURL}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a password account
func (h *Handler) HandleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("Invalid request body"))
		return
	}

	session, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// HandleLogin signs in with email and password
func (h *Handler) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("Invalid request body"))
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// HandleMe returns the signed-in user
func (h *Handler) HandleMe(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), UserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleGoogleLogin initiates the Google OAuth flow
func (h *Handler) HandleGoogleLogin(c *gin.Context) {
	if h.google == nil {
		apperr.Respond(c, apperr.Upstream("Google login is not configured", nil))
		return
	}
	h.google.Begin(c)
}

// HandleGoogleCallback completes the OAuth flow, resolves the user and hands
// the token to the browser app in the URL fragment.
func (h *Handler) HandleGoogleCallback(c *gin.Context) {
	if h.google == nil {
		apperr.Respond(c, apperr.Upstream("Google login is not configured", nil))
		return
	}
	if c.Query("code") == "" {
		apperr.Respond(c, apperr.Validation("No code provided"))
		return
	}

	gothUser, err := h.google.Complete(c)
	if err != nil {
		apperr.Respond(c, apperr.Upstream("Google authentication failed", err))
		return
	}

	user, err := h.svc.ResolveGoogleUser(c.Request.Context(), gothUser)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	token, err := h.svc.IssueFor(user)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.Redirect(http.StatusFound, h.appURL+"/dashboard#token="+token)
}

// RegisterRoutes mounts the auth routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.HandleRegister)
	rg.POST("/login", h.HandleLogin)
	rg.GET("/google", h.HandleGoogleLogin)
	rg.GET("/google/callback", h.HandleGoogleCallback)
	rg.GET("/me", RequireAuth(h.svc.Tokens()), h.HandleMe)
}

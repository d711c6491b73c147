package handler

import (
	"github.com/gin-gonic/gin"

	appidentity "github.com/abarrotes/storefront/internal/application/identity"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
)

// AuthHandler serves the login and registration pages
type AuthHandler struct {
	BaseHandler
	sessions *appidentity.SessionService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *appidentity.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/register", h.Register)
	auth.POST("/logout", h.Logout)
	auth.POST("/validate", h.Validate)
	auth.GET("/me", h.Me)
}

// Login godoc
// @Summary      Log in to a store
// @Tags         auth
// @Param        request body appidentity.LoginInput true "Credentials"
// @Success      200 {object} dto.Response{data=dto.SessionView}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input appidentity.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.InvalidJSON(c, err)
		return
	}
	session, err := h.sessions.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToSessionView(session))
}

// Register godoc
// @Summary      Create a shopper account
// @Tags         auth
// @Param        request body appidentity.RegisterInput true "Account"
// @Success      201 {object} dto.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var input appidentity.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.InvalidJSON(c, err)
		return
	}
	if err := h.sessions.Register(c.Request.Context(), input); err != nil {
		h.HandleError(c, err)
		return
	}
	tenant, _ := catalog.ParseTenant(input.TenantID)
	h.Created(c, gin.H{"tenant_id": string(tenant), "user_id": input.UserID})
}

// Logout clears the stored session. The cart is kept for the next login
// of the same user and discarded when someone else logs in.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

// Validate asks the users service whether the stored token is still good
func (h *AuthHandler) Validate(c *gin.Context) {
	valid, message, err := h.sessions.Validate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"valid": valid, "message": message})
}

// Me returns the current session
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := h.sessions.Current(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if session == nil {
		h.HandleError(c, shared.ErrNotAuthenticated)
		return
	}
	h.Success(c, dto.ToSessionView(session))
}

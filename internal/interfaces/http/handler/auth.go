package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/grocerypos/backend/internal/application/identity"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/grocerypos/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles operator sign-in and sign-out
type AuthHandler struct {
	BaseHandler
	authService     *identityapp.AuthService
	operatorService *identityapp.OperatorService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identityapp.AuthService, operatorService *identityapp.OperatorService) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		operatorService: operatorService,
	}
}

// Login exchanges a username and PIN for an access token
// @Summary      Operator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginRequest true "Username and PIN"
// @Success      200 {object} dto.Response{data=identityapp.LoginResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.RequestID = getRequestID(c)

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the token the request was made with
// @Summary      Revoke the current token
// @Tags         auth
// @Produce      json
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.CodeUnauthenticated, "Authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), identityapp.LogoutRequest{
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
		Actor:     getActor(c),
		RequestID: getRequestID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the signed-in operator
// @Summary      Current operator
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.OperatorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor := getActor(c)
	info, err := h.operatorService.GetOperator(c.Request.Context(), actor, actor.OperatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

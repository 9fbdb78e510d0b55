package handlers

import (
	"net/http"

	"blog_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgCredentialsRequired = "Username and password are required"
	msgFieldsRequired      = "All fields are required"
	msgInvalidEmail        = "Invalid email"
)

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signUpResponse struct {
	ID string `json:"id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      service.SignUpInput  true  "Account"
// @Success      201   {object}  signUpResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input service.SignUpInput
	if ok := h.bindValidated(c, &input, signUpMessage); !ok {
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "auth_sign_up_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusCreated, signUpResponse{ID: id})
}

// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input signInRequest
	if ok := h.bindValidated(c, &input, func(validator.FieldError) string { return msgCredentialsRequired }); !ok {
		return
	}

	token, err := h.services.GenerateToken(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, "auth_sign_in_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
// @Security     BearerAuth
func signUpMessage(fe validator.FieldError) string {
	if fe.Tag() == "email" {
		return msgInvalidEmail
	}
	return msgFieldsRequired
}

func (h *Handler) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

package handlers

import (
	"net/http"
	"time"

	"authentication_api/internal/models"

	"github.com/gin-gonic/gin"
)

type authenticateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type authenticateResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Token     string    `json:"token"`
	Expires   time.Time `json:"expires"`
}

const errBadCredentials = "username or password is incorrect"

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// @Summary      Authenticate
// @Description  Verifies username and password and returns a bearer token valid for 15 minutes.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input  body      authenticateRequest  true  "credentials"
// @Success      200    {object}  authenticateResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /users/authenticate [post]
func (h *Handler) authenticate(c *gin.Context) {
	var input authenticateRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	sess, err := h.services.SignIn(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.writeServiceError(c, "auth_sign_in_error", err, "username", input.Username)
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: errBadCredentials})
		return
	}

	c.JSON(http.StatusOK, authenticateResponse{
		ID:        sess.User.ID,
		Username:  sess.User.Username,
		FirstName: sess.User.FirstName,
		LastName:  sess.User.LastName,
		Token:     sess.Token.Token,
		Expires:   sess.Token.ExpiresAt,
	})
}

// @Summary      Register
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input  body      registerRequest  true  "new user"
// @Success      201    {object}  models.UserView
// @Failure      400    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /users/register [post]
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	u, err := h.services.CreateUser(c.Request.Context(), models.User{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}, input.Password)
	if err != nil {
		h.writeServiceError(c, "user_register_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusCreated, u.View())
}

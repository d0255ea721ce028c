package handlers

import (
	"net/http"
	"strconv"

	"authentication_api/internal/models"

	"github.com/gin-gonic/gin"
)

// updateUserRequest fields are optional; omitted or blank fields are left unchanged.
type updateUserRequest struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type listUsersResponse struct {
	Count int               `json:"count"`
	Users []models.UserView `json:"users"`
}

// userIDParam parses the :id path parameter and writes a 400 when it is not a positive integer.
func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  listUsersResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /users [get]
// @Security     BearerAuth
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.ListUsers(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "users_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, listUsersResponse{Count: len(users), Users: models.Views(users)})
}

// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "user id"
// @Success      200  {object}  models.UserView
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
// @Security     BearerAuth
func (h *Handler) getUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	u, err := h.services.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "user_get_failed", err, "user_id", id)
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      Update user
// @Description  Partial update. Omitted or blank fields keep their value; a new password replaces the stored hash.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id     path      int                true  "user id"
// @Param        input  body      updateUserRequest  true  "fields to change"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /users/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var input updateUserRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	err := h.services.UpdateUser(c.Request.Context(), id, models.UserPatch{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if err != nil {
		h.writeServiceError(c, "user_update_failed", err, "user_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "user id"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.services.DeleteUser(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, "user_delete_failed", err, "user_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

package handlers

import (
	"net/http"
	"strconv"

	"blog_api/internal/models"
	"blog_api/internal/service"

	"github.com/gin-gonic/gin"
)

const msgPostDeleted = "Post deleted"

// queryInt parses an integer query parameter; anything unparsable is 0,
// which the service replaces with its default.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Param        category  query     string  false  "Exact category"
// @Param        page      query     int     false  "Page, starting at 1"  default(1)
// @Param        limit     query     int     false  "Page size, at most 100"  default(10)
// @Success      200       {array}   models.Post
// @Failure      500       {object}  errorResponse
// @Router       /api/posts [get]
func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.services.Posts.List(c.Request.Context(), service.ListQuery{
		Category: c.Query("category"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		h.fail(c, "posts_list_failed", err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  models.Post
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/posts/{id} [get]
func (h *Handler) getPost(c *gin.Context) {
	post, err := h.services.Posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "posts_get_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, post)
}

// @Summary      Create post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        body  body      service.PostInput  true  "Post"
// @Success      201   {object}  models.Post
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/posts [post]
// @Security     BearerAuth
func (h *Handler) createPost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input service.PostInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	post, err := h.services.Posts.Create(c.Request.Context(), user, input)
	if err != nil {
		h.fail(c, "posts_create_failed", err, "user_id", user.ID)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// @Summary      Update post
// @Description  Only the author may update. Omitted fields stay unchanged; empty strings are rejected.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Post id"
// @Param        body  body      service.PostPatch  true  "Fields to replace"
// @Success      200   {object}  models.Post
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/posts/{id} [put]
// @Security     BearerAuth
func (h *Handler) updatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var patch service.PostPatch
	if ok := h.bindJSONOrBadRequest(c, &patch); !ok {
		return
	}

	post, err := h.services.Posts.Update(c.Request.Context(), user, c.Param("id"), patch)
	if err != nil {
		h.fail(c, "posts_update_failed", err, "id", c.Param("id"), "user_id", user.ID)
		return
	}
	c.JSON(http.StatusOK, post)
}

// @Summary      Delete post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/posts/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deletePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.services.Posts.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		h.fail(c, "posts_delete_failed", err, "id", c.Param("id"), "user_id", user.ID)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msgPostDeleted})
}

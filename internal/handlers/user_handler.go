package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/career-atlas/internal/auth"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/services"
	"github.com/justsurfingit/career-atlas/internal/validation"
)

// UserHandler serves everything under the signed-in user: bookmarks,
// applications and the profile.
type UserHandler struct {
	Favorites    *services.FavoritesService
	Applications *services.ApplicationsService
	Profiles     *services.ProfileService
}

func NewUserHandler(f *services.FavoritesService, a *services.ApplicationsService, p *services.ProfileService) *UserHandler {
	return &UserHandler{Favorites: f, Applications: a, Profiles: p}
}

// Me is GET /me
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, auth.CurrentUser(c))
}

// ListBookmarks is GET /bookmarks
func (h *UserHandler) ListBookmarks(c *gin.Context) {
	user := auth.CurrentUser(c)
	jobs, err := h.Favorites.ListJobs(c.Request.Context(), user.UID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// AddBookmark is PUT /bookmarks/:id
func (h *UserHandler) AddBookmark(c *gin.Context) {
	ids, err := h.Favorites.Add(c.Request.Context(), auth.CurrentUser(c).UID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobIds": ids})
}

// RemoveBookmark is DELETE /bookmarks/:id
func (h *UserHandler) RemoveBookmark(c *gin.Context) {
	ids, err := h.Favorites.Remove(c.Request.Context(), auth.CurrentUser(c).UID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobIds": ids})
}

// MergeBookmarks is POST /bookmarks/merge, called once after sign-in with
// the bookmarks collected as a guest.
func (h *UserHandler) MergeBookmarks(c *gin.Context) {
	var req dtos.MergeBookmarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Favorites.Merge(c.Request.Context(), auth.CurrentUser(c).UID, req.JobIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListApplications is GET /applications
func (h *UserHandler) ListApplications(c *gin.Context) {
	views, err := h.Applications.List(c.Request.Context(), auth.CurrentUser(c).UID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": views})
}

// Apply is POST /applications
func (h *UserHandler) Apply(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	app, err := h.Applications.Apply(c.Request.Context(), auth.CurrentUser(c).UID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// RemoveApplication is DELETE /applications/:id
func (h *UserHandler) RemoveApplication(c *gin.Context) {
	if err := h.Applications.Remove(c.Request.Context(), auth.CurrentUser(c).UID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile is GET /profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	resp, err := h.Profiles.Get(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProfile is PATCH /profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dtos.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Profiles.Update(c.Request.Context(), auth.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadAvatar is POST /profile/avatar (multipart field "file")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	name, data, ok := readFormFile(c, validation.MaxAvatarBytes)
	if !ok {
		return
	}
	resp, err := h.Profiles.UploadAvatar(c.Request.Context(), auth.CurrentUser(c), name, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadResume is POST /profile/resume (multipart field "file")
func (h *UserHandler) UploadResume(c *gin.Context) {
	name, data, ok := readFormFile(c, validation.MaxResumeBytes)
	if !ok {
		return
	}
	resp, err := h.Profiles.UploadResume(c.Request.Context(), auth.CurrentUser(c), name, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// readFormFile reads at most limit+1 bytes so oversized files are still
// rejected by the size check rather than silently truncated.
func readFormFile(c *gin.Context, limit int) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field: " + err.Error(), "field": "file"})
		return "", nil, false
	}
	if fh.Size > int64(limit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds %d MB", limit>>20), "field": "file"})
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "file"})
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "file"})
		return "", nil, false
	}
	return fh.Filename, data, true
}

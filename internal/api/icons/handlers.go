// Package icons implements the custom icon endpoints: listing the store and
// submitting new icons.
package icons

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custom-icon-badges/custom-icon-badges/internal/badge"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/services"
)

// Response messages.
const (
	MsgBadRequest = "Bad request."
	MsgConflict   = "This slug is already in use."
	MsgTooBig     = "The icon you uploaded is too big."
	MsgCreated    = "Your icon has been added successfully."
	MsgStoreDown  = "The icon store is unavailable."
	MsgUpstream   = "The badge service could not be reached."
)

// Submitter runs the icon submission workflow.
type Submitter interface {
	Submit(ctx context.Context, icon models.Icon, q badge.Query) (*models.Icon, error)
}

// Handlers serves /icons.
type Handlers struct {
	store        iconstore.Store
	submitter    Submitter
	maxBodyBytes int64
}

// NewHandlers creates the icon handlers. maxBodyBytes <= 0 disables the body limit.
func NewHandlers(store iconstore.Store, submitter Submitter, maxBodyBytes int64) *Handlers {
	return &Handlers{store: store, submitter: submitter, maxBodyBytes: maxBodyBytes}
}

// Envelope is the JSON shape of every POST /icons response.
type Envelope struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Body    models.Icon `json:"body"`
}

// @Summary      List custom icons
// @Tags         Icons
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "icons: [{slug, type, data}]"
// @Failure      503  {object}  map[string]interface{}  "Icon store unavailable"
// @Router       /icons [get]
// ListIcons handles GET /icons
func (h *Handlers) ListIcons(c *gin.Context) {
	icons, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"type": "error", "message": MsgStoreDown})
		return
	}
	if icons == nil {
		icons = []models.Icon{}
	}
	c.JSON(http.StatusOK, gin.H{"icons": icons})
}

// @Summary      Submit a custom icon
// @Description  Renders a test badge with the icon, checks the slug is free among curated, custom and renderer icons, then stores it.
// @Tags         Icons
// @Accept       json
// @Produce      json
// @Param        icon  body  models.Icon  true  "slug, type (e.g. svg+xml, png) and base64 data"
// @Success      200  {object}  Envelope
// @Failure      400  {object}  Envelope  "Missing field"
// @Failure      409  {object}  Envelope  "Slug in use"
// @Failure      414  {object}  Envelope  "Icon too big"
// @Router       /icons [post]
// SubmitIcon handles POST /icons
func (h *Handlers) SubmitIcon(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var icon models.Icon
	if err := c.ShouldBindJSON(&icon); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, Envelope{Type: "error", Message: MsgTooBig, Body: icon})
			return
		}
		c.JSON(http.StatusBadRequest, Envelope{Type: "error", Message: MsgBadRequest, Body: icon})
		return
	}

	created, err := h.submitter.Submit(c.Request.Context(), icon, badge.ParseQuery(c.Request.URL.RawQuery))
	if err != nil {
		status, message := errorResponse(err)
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(status, Envelope{Type: "error", Message: message, Body: icon})
		return
	}

	c.JSON(http.StatusOK, Envelope{Type: "success", Message: MsgCreated, Body: *created})
}

// errorResponse maps a submission error onto a status code and message.
func errorResponse(err error) (int, string) {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
		upstream   *services.UpstreamError
		transport  *services.TransportError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, MsgBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict, MsgConflict
	case errors.As(err, &upstream):
		if upstream.TooLarge() {
			return upstream.StatusCode, MsgTooBig
		}
		return upstream.StatusCode, fmt.Sprintf("There was an error with your request. Status: %d - %s.", upstream.StatusCode, upstream.StatusText)
	case errors.As(err, &transport):
		if transport.StoreFailure() {
			return http.StatusServiceUnavailable, MsgStoreDown
		}
		return http.StatusBadGateway, MsgUpstream
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}

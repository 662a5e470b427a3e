// Package badges serves badge images by relaying translated requests to the
// upstream renderer.
package badges

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custom-icon-badges/custom-icon-badges/internal/badge"
	"github.com/custom-icon-badges/custom-icon-badges/internal/services"
	"github.com/custom-icon-badges/custom-icon-badges/internal/upstream"
)

// Renderer produces the upstream response for a badge request.
type Renderer interface {
	Render(ctx context.Context, segments []string, q badge.Query) (*upstream.Response, error)
}

// Handler relays badge requests.
type Handler struct {
	renderer Renderer
}

// NewHandler creates a badge handler.
func NewHandler(renderer Renderer) *Handler {
	return &Handler{renderer: renderer}
}

// @Summary      Render a badge
// @Description  Proxies the request path and query to the badge renderer. A logo naming a curated or custom icon is replaced by a data URL; logoColor recolours SVG icons.
// @Tags         Badges
// @Produce      image/svg+xml
// @Param        logo       query  string  false  "Icon slug"
// @Param        logoColor  query  string  false  "Logo colour (named, hex or bare hex)"
// @Success      200  {string}  string  "Badge image, status mirrors the renderer"
// @Failure      502  {object}  map[string]interface{}  "Renderer unreachable"
// @Failure      503  {object}  map[string]interface{}  "Icon store unavailable"
// @Router       /badge/{path} [get]
// Serve relays GET /badge/*path and every unmatched GET path.
func (h *Handler) Serve(c *gin.Context) {
	segments := PathSegments(c.Request.URL.EscapedPath())
	q := badge.ParseQuery(c.Request.URL.RawQuery)

	resp, err := h.renderer.Render(c.Request.Context(), segments, q)
	if err != nil {
		_ = c.Error(err)
		status, message := http.StatusBadGateway, "The badge service could not be reached."
		var te *services.TransportError
		if errors.As(err, &te) && te.StoreFailure() {
			status, message = http.StatusServiceUnavailable, "The icon store is unavailable."
		}
		c.JSON(status, gin.H{"type": "error", "message": message})
		return
	}

	if cc := resp.Header.Get("Cache-Control"); cc != "" {
		c.Header("Cache-Control", cc)
	}
	c.Data(resp.StatusCode, resp.ContentType(), resp.Body)
}

// PathSegments splits an escaped request path into its non-empty segments and
// unescapes each one, so an encoded slash stays inside its segment. The
// translator re-escapes them. A segment with a malformed escape is kept as is.
func PathSegments(escapedPath string) []string {
	var out []string
	for _, p := range strings.Split(escapedPath, "/") {
		if p == "" {
			continue
		}
		if u, err := url.PathUnescape(p); err == nil {
			p = u
		}
		out = append(out, p)
	}
	return out
}

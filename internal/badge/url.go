package badge

import (
	"encoding/base64"
	"strings"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
)

// BuildUpstreamURL turns badge path segments, the inbound query and an optional
// resolved icon into the URL requested from the upstream renderer.
//
// Without an icon the query is forwarded as received. With one, logo becomes a
// data: URL carrying the icon, recoloured first when it is an SVG and logoColor
// was given, and logoColor is dropped from the forwarded query.
func BuildUpstreamURL(base string, segments []string, q Query, icon *models.Icon) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = EscapeComponent(s)
	}

	out := strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")

	if icon != nil {
		q = q.Clone()
		q.Set(KeyLogo, DataURL(icon, logoColor(q)))
		q.Del(KeyLogoColor)
	}

	if qs := q.Encode(); qs != "" {
		out += "?" + qs
	}
	return out
}

func logoColor(q Query) string {
	c, _ := q.Single(KeyLogoColor)
	return c
}

// DataURL renders icon as data:image/<type>;base64,<data>. SVG icons are
// recoloured when color is non-empty. Raw SVG markup and SVG data in a
// non-standard base64 alphabet are re-encoded with standard padded base64.
func DataURL(icon *models.Icon, color string) string {
	data := icon.Data
	if icon.IsSVG() {
		if markup, canonical, ok := svgMarkup(data); ok && (!canonical || color != "") {
			if color != "" {
				markup = ApplyColor(markup, color)
			}
			data = base64.StdEncoding.EncodeToString([]byte(markup))
		}
	}
	return "data:image/" + icon.Type + ";base64," + data
}

// svgEncodings are tried in order on stored SVG data that is not raw markup.
var svgEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// svgMarkup returns the markup held in data. canonical is true when data is
// already padded standard base64. ok is false when data is neither markup nor
// base64 in any known alphabet.
func svgMarkup(data string) (markup string, canonical, ok bool) {
	trimmed := strings.TrimSpace(data)
	if strings.HasPrefix(trimmed, "<") {
		return data, false, true
	}
	for i, enc := range svgEncodings {
		if decoded, err := enc.DecodeString(trimmed); err == nil {
			return string(decoded), i == 0, true
		}
	}
	return "", false, false
}

// Package models - icon.go defines the Icon model, the unit stored by every icon
// store backend and embedded into badges as a data URL.
package models

import "strings"

// SVGType is the media subtype of SVG icons. Only icons of this type can be recoloured.
const SVGType = "svg+xml"

// Icon is a custom badge logo. Slug is the value callers pass as ?logo=, Type is the
// image media subtype (svg+xml, png, ...) and Data is the base64 payload.
type Icon struct {
	Slug string `db:"slug" json:"slug"`
	Type string `db:"type" json:"type"`
	Data string `db:"data" json:"data"`
}

// IsSVG reports whether the icon holds SVG markup.
func (i *Icon) IsSVG() bool {
	return strings.EqualFold(i.Type, SVGType)
}

// MissingFields returns the names of required fields that are empty, in the order
// slug, type, data.
func (i *Icon) MissingFields() []string {
	var missing []string
	if i.Slug == "" {
		missing = append(missing, "slug")
	}
	if i.Type == "" {
		missing = append(missing, "type")
	}
	if i.Data == "" {
		missing = append(missing, "data")
	}
	return missing
}

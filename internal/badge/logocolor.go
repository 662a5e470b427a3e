package badge

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// namedColors maps the shields.io colour keywords onto hex values so that an
// SVG icon is recoloured the same way shields would recolour a built-in logo.
var namedColors = map[string]string{
	"brightgreen":   "#4c1",
	"success":       "#4c1",
	"green":         "#97ca00",
	"yellowgreen":   "#a4a61d",
	"yellow":        "#dfb317",
	"orange":        "#fe7d37",
	"important":     "#fe7d37",
	"red":           "#e05d44",
	"critical":      "#e05d44",
	"blue":          "#007ec6",
	"informational": "#007ec6",
	"grey":          "#555",
	"gray":          "#555",
	"lightgrey":     "#9f9f9f",
	"lightgray":     "#9f9f9f",
	"inactive":      "#9f9f9f",
}

var bareHex = regexp.MustCompile(`^(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// NormalizeColor turns a logoColor value into something usable as an SVG paint.
// shields keywords map to their hex value and bare hex gets a leading "#".
// Anything else (CSS names, rgb(), ...) is returned as given.
func NormalizeColor(color string) string {
	c := strings.TrimSpace(color)
	if hex, ok := namedColors[strings.ToLower(c)]; ok {
		return hex
	}
	if bareHex.MatchString(c) {
		return "#" + c
	}
	return c
}

var paintAttrs = []string{"fill", "stroke"}

// ApplyColor rewrites every fill and stroke paint in svg to color. Paints set
// to "none" are kept so outlines and cut-outs survive. The root element gets a
// fill when it has none, which covers shapes relying on the default black.
//
// Markup that does not parse, or whose root is not <svg>, is returned unchanged.
func ApplyColor(svg, color string) string {
	paint := NormalizeColor(color)
	if paint == "" {
		return svg
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(svg); err != nil {
		return svg
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return svg
	}

	recolor(root, paint)
	if root.SelectAttr("fill") == nil {
		root.CreateAttr("fill", paint)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return svg
	}
	return out
}

func recolor(el *etree.Element, paint string) {
	for _, name := range paintAttrs {
		if attr := el.SelectAttr(name); attr != nil && !isNone(attr.Value) {
			attr.Value = paint
		}
	}
	if style := el.SelectAttr("style"); style != nil {
		style.Value = recolorStyle(style.Value, paint)
	}
	for _, child := range el.ChildElements() {
		recolor(child, paint)
	}
}

// recolorStyle rewrites fill and stroke declarations in an inline style attribute.
func recolorStyle(style, paint string) string {
	decls := strings.Split(style, ";")
	for i, decl := range decls {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(prop))
		if name != "fill" && name != "stroke" {
			continue
		}
		if isNone(value) {
			continue
		}
		decls[i] = prop + ":" + paint
	}
	return strings.Join(decls, ";")
}

func isNone(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "none")
}

package upstream

import (
	"context"
	"regexp"
)

// BuiltinIconChecker reports whether the upstream renderer already ships an
// icon under slug.
type BuiltinIconChecker interface {
	IsBuiltinIcon(ctx context.Context, slug string) (bool, error)
}

var imageElement = regexp.MustCompile(`<image[^>]*>`)

// MarkupProbe renders a default badge with slug as its logo and looks for an
// embedded <image> element in the result. The renderer only embeds one when
// it resolved the slug to a logo of its own.
type MarkupProbe struct {
	Client *Client
}

// NewMarkupProbe creates a probe that uses client.
func NewMarkupProbe(client *Client) *MarkupProbe {
	return &MarkupProbe{Client: client}
}

// IsBuiltinIcon implements BuiltinIconChecker.
func (p *MarkupProbe) IsBuiltinIcon(ctx context.Context, slug string) (bool, error) {
	resp, err := p.Client.do(ctx, KindProbe, p.Client.DefaultBadgeURL(slug))
	if err != nil {
		return false, err
	}
	return imageElement.Match(resp.Body), nil
}

var _ BuiltinIconChecker = (*MarkupProbe)(nil)

package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custom-icon-badges/custom-icon-badges/internal/badge"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/icons"
	"github.com/custom-icon-badges/custom-icon-badges/internal/upstream"
)

type erroringResolver struct{ err error }

func (r erroringResolver) Resolve(context.Context, string) (*models.Icon, error) { return nil, r.err }

func newRenderer(t *testing.T, store iconstore.Store, h http.HandlerFunc) *BadgeRenderer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	curated, err := icons.LoadCurated()
	require.NoError(t, err)
	return NewBadgeRenderer(icons.NewResolver(curated, store), upstream.New(srv.URL, 5*time.Second, ""), srv.URL)
}

func TestRender_UnknownSlugForwardsQuery(t *testing.T) {
	var gotQuery string
	r := newRenderer(t, iconstore.NewMemoryStore(), func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		w.WriteHeader(http.StatusNotFound)
	})

	resp, err := r.Render(context.Background(), []string{"badge", "a-b-c"}, badge.ParseQuery("logo=nope&logoColor=red"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "logo=nope&logoColor=red", gotQuery)
}

func TestRender_CustomSVGWithColor(t *testing.T) {
	store := iconstore.NewMemoryStore()
	svg := `<svg xmlns="http://www.w3.org/2000/svg"><path fill="#000" d="M0 0"/></svg>`
	require.NoError(t, store.Insert(context.Background(), models.Icon{
		Slug: "mine", Type: models.SVGType, Data: base64.StdEncoding.EncodeToString([]byte(svg)),
	}))

	var got url.Values
	r := newRenderer(t, store, func(w http.ResponseWriter, req *http.Request) {
		got = req.URL.Query()
		_, _ = w.Write([]byte("<svg/>"))
	})

	_, err := r.Render(context.Background(), []string{"badge", "a-b-c"}, badge.ParseQuery("logo=mine&logoColor=ff0000"))
	require.NoError(t, err)

	assert.False(t, got.Has("logoColor"))
	logo := got.Get("logo")
	require.True(t, strings.HasPrefix(logo, "data:image/svg+xml;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(logo, "data:image/svg+xml;base64,"))
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "#ff0000")
}

func TestRender_RepeatedLogoIsIgnored(t *testing.T) {
	var gotQuery string
	r := newRenderer(t, iconstore.NewMemoryStore(), func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
	})

	_, err := r.Render(context.Background(), []string{"badge", "a-b-c"}, badge.ParseQuery("logo=rocket&logo=star"))
	require.NoError(t, err)
	assert.Equal(t, "logo=rocket%2Cstar", gotQuery)
}

func TestRender_ResolverFailure(t *testing.T) {
	r := NewBadgeRenderer(erroringResolver{err: errors.New("db down")}, upstream.New("http://unused", time.Second, ""), "http://unused")

	_, err := r.Render(context.Background(), []string{"badge", "a-b-c"}, badge.ParseQuery("logo=x"))

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "icon lookup", tErr.Op)
}

func TestRender_FetchFailure(t *testing.T) {
	c := upstream.New("http://127.0.0.1:1", time.Second, "")
	r := NewBadgeRenderer(erroringResolver{}, c, c.BaseURL)

	_, err := r.Render(context.Background(), []string{"badge", "a-b-c"}, badge.Query{})

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "badge fetch", tErr.Op)
}

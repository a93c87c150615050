package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olimci/bijou/cmd/embed"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/prefs"
	"github.com/olimci/bijou/pkg/scaffold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSite(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	vars := scaffold.NewVariables(scaffold.VariablesConfig{Directory: root, Title: "Maison Test"})
	_, err := scaffold.New(embed.Scaffold, "scaffold").Build(context.Background(), root,
		scaffold.WithVariables(vars.ToMap()))
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(root, "bijou.toml"))
	require.NoError(t, err)
	cfg.Resolve(root, "")
	return cfg
}

func get(t *testing.T, h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "text/html")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServerBeforeBuild(t *testing.T) {
	cfg := newTestSite(t)
	s := NewServer(ServerConfig{Builder: NewBuilder(cfg), Hub: NewReloadHub()})

	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServerPage(t *testing.T) {
	cfg := newTestSite(t)
	builder := NewBuilder(cfg)
	res := builder.Build(context.Background())
	require.NoError(t, res.Error)

	h := NewServer(ServerConfig{Builder: builder, Hub: NewReloadHub()}).Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `lang="fr"`)
	assert.Contains(t, body, "Bague en or")
	assert.Contains(t, body, "Collier de perles")
	assert.Contains(t, body, ReloadPath, "reload client injected")
	assert.Contains(t, body, `href="/_bijou/lang?to=ar"`)
	assert.Contains(t, body, `href="/?filter=colliers"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = get(t, h, "/?filter=bagues", &http.Cookie{Name: prefs.Key, Value: "ar"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()

	assert.Contains(t, body, `dir="rtl"`)
	assert.Contains(t, body, "خاتم الياقوت")
	assert.NotContains(t, body, "عقد اللؤلؤ", "gallery filtered to rings")
	assert.Contains(t, body, `href="/_bijou/lang?filter=bagues&amp;to=fr"`)

	rec = get(t, h, "/ar/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lang="ar"`)
}

func TestServerDefaultsToFrench(t *testing.T) {
	cfg := newTestSite(t)
	builder := NewBuilder(cfg)
	require.NoError(t, builder.Build(context.Background()).Error)
	h := NewServer(ServerConfig{Builder: builder, Hub: NewReloadHub()}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/?filter=bracelets", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "ar-MA,ar;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="fr" dir="ltr"`, "no stored preference renders French")
	assert.Contains(t, body, `href="/_bijou/lang?to=ar"`, "unknown filter is not carried into links")
	assert.Contains(t, body, "Collier de perles")

	req = httptest.NewRequest(http.MethodGet, LangPath, nil)
	req.Header.Set("Accept-Language", "ar")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, string(lang.Arabic), cookies[0].Value, "toggle from the French default")
}

func TestServerLangToggle(t *testing.T) {
	cfg := newTestSite(t)
	h := NewServer(ServerConfig{Builder: NewBuilder(cfg), Hub: NewReloadHub()}).Handler()

	rec := get(t, h, LangPath+"?filter=colliers", &http.Cookie{Name: prefs.Key, Value: "fr"})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?filter=colliers", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, prefs.Key, cookies[0].Name)
	assert.Equal(t, string(lang.Arabic), cookies[0].Value)

	rec = get(t, h, LangPath+"?to=en")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerStatic(t *testing.T) {
	cfg := newTestSite(t)
	h := NewServer(ServerConfig{Builder: NewBuilder(cfg), Hub: NewReloadHub()}).Handler()

	rec := get(t, h, "/assets/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), ReloadPath)

	for _, target := range []string{"/bijou.toml", "/.env", "/content/.secret"} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestInjectReloadScript(t *testing.T) {
	got := string(injectReloadScript([]byte("<html><BODY><p>x</p></BODY></html>")))
	assert.True(t, strings.HasSuffix(got, "</BODY></html>"))
	assert.Contains(t, got, "<p>x</p><script>")

	got = string(injectReloadScript([]byte("plain")))
	assert.True(t, strings.HasPrefix(got, "plain<script>"))
}

func TestReloadHub(t *testing.T) {
	hub := NewReloadHub()
	a, b := hub.Subscribe(), hub.Subscribe()
	assert.Equal(t, 2, hub.Len())

	hub.Reload()
	assert.Equal(t, reloadMsg, <-a.Send)
	assert.Equal(t, reloadMsg, <-b.Send)

	hub.Unsubscribe(a)
	assert.Equal(t, 1, hub.Len())
}

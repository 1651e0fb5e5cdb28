package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restoree/internal/app/certification"
	"restoree/internal/domain/certificate"
	"restoree/internal/infra/assets"
	"restoree/internal/infra/draftstore"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRasterizer struct {
	err error
}

func (s stubRasterizer) Capture(context.Context, string) ([]byte, error) {
	return []byte("\x89PNG fake"), s.err
}

func (s stubRasterizer) PrintPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), s.err
}

type stubEmbedder struct{}

func (stubEmbedder) FromURL(_ context.Context, u string) (string, error) {
	if strings.Contains(u, "missing") {
		return "", errors.New("HTTP 404")
	}
	return "data:image/png;base64,AAAA", nil
}

func (stubEmbedder) FromUpload(_ []byte, ct string) string { return "data:" + ct + ";base64,AAAA" }

func (stubEmbedder) FromBase64(text string) (string, error) {
	if !assets.IsImageDataURI(text) {
		return "", assets.ErrInvalidBase64
	}
	return text, nil
}

type envelope struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Data    certification.Snapshot `json:"data"`
}

func newTestRouter(t *testing.T, raster certification.Rasterizer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if raster == nil {
		raster = stubRasterizer{}
	}
	reader := func(_ context.Context, files []assets.PhotoFile, _ int64) ([]string, error) {
		out := make([]string, len(files))
		for i := range files {
			out[i] = "data:image/png;base64,AAAA"
		}
		return out, nil
	}
	svc, err := certification.NewService(draftstore.NewMemoryStore(), raster, stubEmbedder{},
		certification.WithPhotoReader(reader, 1<<20))
	require.NoError(t, err)
	return NewRouter(RouterDeps{Service: svc}, RouterConfig{Debug: true, MaxBodyBytes: 1 << 20})
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	rec, env := doJSON(t, r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestCreateAndFetchDraft(t *testing.T) {
	r := newTestRouter(t, nil)
	rec, env := doJSON(t, r, http.MethodPost, "/api/drafts", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := env.Data.SessionID
	require.NotEmpty(t, id)

	rec, env = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, certificate.DefaultDisclaimer, env.Data.Draft.Disclaimer)
}

func TestPatchAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)

	rec, env := doJSON(t, r, http.MethodPatch, "/api/drafts/d1",
		`{"article":{"name_select":"__CUSTOM__","name_custom":"Vintage Trunk"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Vintage Trunk", env.Data.Summary.ArticleName)

	rec, env = doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics/Color", `{"before":"5","after":"8"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "8", env.Data.Draft.Reading(certificate.DimensionOverall).After)

	rec, env = doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics/Overall", `{"before":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, _ = doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics/Shine", `{"before":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics/Color", `{"before":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchMetricsDeriveImprovementOnce(t *testing.T) {
	r := newTestRouter(t, nil)

	rec, env := doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics", `[
		{"dimension":"Color","side":"before","value":"5"},
		{"dimension":"structure","side":"Before","value":"6"},
		{"dimension":"Color","side":"after","value":"8"},
		{"dimension":"Structure","side":"after","value":"9"}
	]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	overall := env.Data.Draft.Reading(certificate.DimensionOverall)
	assert.Equal(t, "5.5", overall.Before)
	assert.Equal(t, "8.5", overall.After)
	assert.Equal(t, "55%", env.Data.Draft.ImprovementPercent)
	assert.Equal(t, "55%", env.Data.Summary.ImprovementPercent)

	rec, env = doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics",
		`[{"dimension":"Color","side":"before","value":"1"},{"dimension":"Overall","side":"after","value":"2"}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	_, env = doJSON(t, r, http.MethodGet, "/api/drafts/d1", "")
	assert.Equal(t, "5", env.Data.Draft.Reading(certificate.DimensionColor).Before)

	rec, _ = doJSON(t, r, http.MethodPut, "/api/drafts/d1/metrics", `[{"dimension":"Color","side":"middle","value":"1"}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTagsRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rec, env := doJSON(t, r, http.MethodPost, "/api/drafts/d1/tags/work/toggle", `{"tag":"Deep clean"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Deep clean"}, env.Data.Draft.Tags.WorkPerformed)

	rec, env = doJSON(t, r, http.MethodPost, "/api/drafts/d1/tags/care", `{"tag":"Store in dust bag"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Store in dust bag"}, env.Data.Draft.Tags.CarePlan)

	rec, _ = doJSON(t, r, http.MethodPost, "/api/drafts/d1/tags/misc", `{"tag":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, env = doJSON(t, r, http.MethodGet, "/api/drafts/d1", "")
	work := env.Data.TagOptions[certificate.TagGroupWork]
	require.Len(t, work, len(certificate.WorkVocabulary))
	assert.Equal(t, certificate.TagOption{Term: "Deep clean", Checked: true}, work[0])
	assert.False(t, work[1].Checked)
	care := env.Data.TagOptions[certificate.TagGroupCare]
	require.Len(t, care, len(certificate.CareVocabulary)+1)
	assert.Equal(t, certificate.TagOption{Term: "Store in dust bag", Checked: true, Custom: true}, care[len(care)-1])
	assert.Len(t, env.Data.TagOptions[certificate.TagGroupArrival], 11)
}

func TestTagVocabulary(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := []struct {
		group string
		size  int
	}{
		{"arrival", 11},
		{"work", 9},
		{"care", 7},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags/"+tt.group, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Data struct {
				Group string   `json:"group"`
				Terms []string `json:"terms"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tt.group, body.Data.Group)
		assert.Len(t, body.Data.Terms, tt.size)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags/misc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rec, env := doJSON(t, r, http.MethodPost, "/api/drafts/d1/logo/url", `{"url":"https://cdn.example.com/missing.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Embed fail: HTTP 404", env.Data.LogoStatus)
	assert.Empty(t, env.Data.Draft.Logo)

	_, env = doJSON(t, r, http.MethodPost, "/api/drafts/d1/logo/base64", `{"data":"not-an-image"}`)
	assert.Equal(t, certification.LogoStatusBadBase64, env.Data.LogoStatus)

	_, env = doJSON(t, r, http.MethodPost, "/api/drafts/d1/logo/url", `{"url":"https://cdn.example.com/logo.png"}`)
	assert.Equal(t, certification.LogoStatusEmbedded, env.Data.LogoStatus)

	_, env = doJSON(t, r, http.MethodDelete, "/api/drafts/d1/logo", "")
	assert.Equal(t, certification.LogoStatusReset, env.Data.LogoStatus)
	assert.Empty(t, env.Data.Draft.Logo)
}

func TestImageUpload(t *testing.T) {
	r := newTestRouter(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range []string{"a.png", "b.png"} {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("img"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/drafts/d1/images/before", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, env.Data.Draft.Images.Before, 2)
}

func TestExportAttachment(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/drafts/d1/export/png", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="certificate_`))
	assert.True(t, certificate.ValidCertificateID(rec.Header().Get(certificateIDHeader)))

	rec, _ = doJSON(t, r, http.MethodPost, "/api/drafts/d1/export/gif", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportFailureIs502(t *testing.T) {
	r := newTestRouter(t, stubRasterizer{err: errors.New("chrome crashed")})

	rec, env := doJSON(t, r, http.MethodPost, "/api/drafts/d1/export/print", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "chrome crashed", env.Error)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestPreviewServesHTML(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/drafts/d1/preview", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `id="certificate"`)
}

func TestInvalidSessionKeyIs400(t *testing.T) {
	r := newTestRouter(t, nil)
	rec, _ := doJSON(t, r, http.MethodGet, "/api/drafts/bad.key", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RateLimit(RateLimitConfig{RequestsPerMinute: 1, Burst: 1}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestLiveStreamsSnapshots(t *testing.T) {
	r := newTestRouter(t, nil)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/drafts/live1/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first liveMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)

	resp, err := http.Post(srv.URL+"/api/drafts/live1/tags/arrival/toggle", "application/json", strings.NewReader(`{"tag":"Scuffs"}`))
	require.NoError(t, err)
	resp.Body.Close()

	var next liveMessage
	require.NoError(t, conn.ReadJSON(&next))
	require.NotNil(t, next.Data)
	assert.Equal(t, []string{"Scuffs"}, next.Data.Draft.Tags.ArrivalIssues)
}

package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"restoree/internal/app/certification"
	"restoree/internal/domain/certificate"
	"restoree/internal/infra/assets"
	"restoree/internal/infra/httpclient"
	"restoree/internal/shared/logging"

	"github.com/gin-gonic/gin"
)

const (
	certificateIDHeader = "X-Certificate-Id"
	maxLogoBytes        = 10 << 20
)

// DraftHandler serves the draft endpoints.
type DraftHandler struct {
	service *certification.Service
	logger  logging.Logger
}

func NewDraftHandler(service *certification.Service, logger logging.Logger) *DraftHandler {
	return &DraftHandler{service: service, logger: logging.OrNop(logger)}
}

type tagRequest struct {
	Tag string `json:"tag"`
}

type logoURLRequest struct {
	URL string `json:"url"`
}

type logoBase64Request struct {
	Data string `json:"data"`
}

func (h *DraftHandler) Create(c *gin.Context) {
	snap, err := h.service.NewSession(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: snap})
}

func (h *DraftHandler) Get(c *gin.Context) {
	h.reply(c)(h.service.Snapshot(c.Request.Context(), c.Param("id")))
}

func (h *DraftHandler) Reset(c *gin.Context) {
	h.reply(c)(h.service.Reset(c.Request.Context(), c.Param("id")))
}

func (h *DraftHandler) Update(c *gin.Context) {
	var patch certification.DraftPatch
	if !bindJSON(c, &patch) {
		return
	}
	h.reply(c)(h.service.Update(c.Request.Context(), c.Param("id"), patch))
}

func (h *DraftHandler) SetMetric(c *gin.Context) {
	dim, err := certificate.ParseDimension(c.Param("dimension"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var in certification.MetricInput
	if !bindJSON(c, &in) {
		return
	}
	h.reply(c)(h.service.SetMetric(c.Request.Context(), c.Param("id"), dim, in))
}

// SetMetrics applies a batch of readings with a single recompute, so the
// improvement percent reflects the whole batch.
func (h *DraftHandler) SetMetrics(c *gin.Context) {
	var updates []certificate.MetricUpdate
	if !bindJSON(c, &updates) {
		return
	}
	for i, u := range updates {
		dim, err := certificate.ParseDimension(string(u.Dimension))
		if err != nil {
			h.fail(c, err)
			return
		}
		side, err := certificate.ParseSide(strings.ToLower(string(u.Side)))
		if err != nil {
			h.fail(c, err)
			return
		}
		updates[i].Dimension, updates[i].Side = dim, side
	}
	h.reply(c)(h.service.SetMetrics(c.Request.Context(), c.Param("id"), updates))
}

// Vocabulary lists the base terms offered for a tag group.
func (h *DraftHandler) Vocabulary(c *gin.Context) {
	group, err := certificate.ParseTagGroup(c.Param("group"))
	if err != nil {
		h.fail(c, err)
		return
	}
	terms, err := certificate.Vocabulary(group)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, gin.H{"group": group, "terms": terms})
}

func (h *DraftHandler) ToggleTag(c *gin.Context) {
	group, req, ok := h.tagInput(c)
	if !ok {
		return
	}
	h.reply(c)(h.service.ToggleTag(c.Request.Context(), c.Param("id"), group, req.Tag))
}

func (h *DraftHandler) AddTag(c *gin.Context) {
	group, req, ok := h.tagInput(c)
	if !ok {
		return
	}
	h.reply(c)(h.service.AddTag(c.Request.Context(), c.Param("id"), group, req.Tag))
}

func (h *DraftHandler) tagInput(c *gin.Context) (certificate.TagGroup, tagRequest, bool) {
	group, err := certificate.ParseTagGroup(c.Param("group"))
	if err != nil {
		h.fail(c, err)
		return "", tagRequest{}, false
	}
	var req tagRequest
	if !bindJSON(c, &req) {
		return "", tagRequest{}, false
	}
	return group, req, true
}

// SetImages replaces one side's photos with the multipart "files" field.
func (h *DraftHandler) SetImages(c *gin.Context) {
	side, err := certificate.ParseSide(c.Param("side"))
	if err != nil {
		h.fail(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	headers := form.File["files"]
	files := make([]assets.PhotoFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, photoFile(fh))
	}
	h.reply(c)(h.service.SetPhotos(c.Request.Context(), c.Param("id"), side, files))
}

func photoFile(fh *multipart.FileHeader) assets.PhotoFile {
	return assets.PhotoFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (h *DraftHandler) LogoURL(c *gin.Context) {
	var req logoURLRequest
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.EmbedLogoURL(c.Request.Context(), c.Param("id"), req.URL))
}

// LogoUpload embeds the multipart "file" field.
func (h *DraftHandler) LogoUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("missing logo file: %v", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()
	data, err := httpclient.ReadAllWithLimit(f, maxLogoBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reply(c)(h.service.EmbedLogoUpload(c.Request.Context(), c.Param("id"), data, fh.Header.Get("Content-Type")))
}

func (h *DraftHandler) LogoBase64(c *gin.Context) {
	var req logoBase64Request
	if !bindJSON(c, &req) {
		return
	}
	h.reply(c)(h.service.EmbedLogoBase64(c.Request.Context(), c.Param("id"), req.Data))
}

func (h *DraftHandler) ResetLogo(c *gin.Context) {
	h.reply(c)(h.service.ResetLogo(c.Request.Context(), c.Param("id")))
}

func (h *DraftHandler) NewCertificateID(c *gin.Context) {
	h.reply(c)(h.service.NewCertificateID(c.Request.Context(), c.Param("id")))
}

func (h *DraftHandler) Preview(c *gin.Context) {
	doc, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// Export streams the artifact as an attachment. A rendering failure is a
// 502 with no body beyond the error envelope.
func (h *DraftHandler) Export(c *gin.Context) {
	format, err := certification.ParseFormat(c.Param("format"))
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.OK() {
		msg := "export failed"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		respondError(c, http.StatusBadGateway, msg)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Header(certificateIDHeader, res.CertificateID)
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

func (h *DraftHandler) reply(c *gin.Context) func(certification.Snapshot, error) {
	return func(snap certification.Snapshot, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		respondOK(c, snap)
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondError(c, http.StatusBadRequest, "invalid request: "+strings.TrimSpace(err.Error()))
		return false
	}
	return true
}

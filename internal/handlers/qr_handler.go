package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/qrtist/backend/internal/models"
	"github.com/qrtist/backend/internal/qr"
	"github.com/qrtist/backend/internal/validation"
	"go.uber.org/zap"
)

// Column widths of the stored request origin
const (
	maxIPLength        = 45
	maxUserAgentLength = 512
)

// MaxRequestSize bounds request bodies on the QR routes, a full upload plus form overhead
const MaxRequestSize = 11 << 20 // 11MB

const fileTooLargeMessage = "file size should not exceed 10MB"

// multipartMemory is the part of a multipart body kept in memory, the rest is spooled to disk
const multipartMemory = 1 << 20

// QRService is the interface that wraps methods for QR code business logic.
type QRService interface {
	// Method Generate validates the request, renders the QR code and persists it.
	//
	// Returns the created record together with the rendered PNG.
	// Validation failures wrap ErrValidation, unencodable payloads wrap ErrRender,
	// storage failures wrap ErrPersistence. On error no record is created.
	Generate(ctx context.Context, req models.GenerateRequest) (*models.QRCode, []byte, error)
	// Method GetByID retrieve a record by its ID using configured repository.
	//
	// If the record does not exist, an error wrapping ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.QRCode, error)
	// Method List retrieve the most recent records, newest first.
	//
	// If some error will occur during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context) ([]models.QRCode, error)
	// Method Download reads the rendered image of a record and increments its download counter.
	//
	// The counter is incremented only after the image is read.
	// If the record does not exist, an error wrapping ErrNotFound will be returned together with "nil" value.
	Download(ctx context.Context, id string) (*models.Download, error)
	// Method Artifact reads a rendered image by its artifact ref.
	//
	// Malformed or unknown refs return an error wrapping ErrNotFound.
	Artifact(ref string) ([]byte, error)
	// Method Stats aggregates usage statistics over all records.
	//
	// If some error will occur during data retrieve, the error will be returned together with "nil" value.
	Stats(ctx context.Context) (*models.Stats, error)
}

// QRHandler handles HTTP requests for QR codes
type QRHandler struct {
	BaseHandler
	service QRService
	baseURL string
}

// NewQRHandler creates a new QR code handler.
// "baseURL" is used to build absolute image URLs.
func NewQRHandler(svc QRService, logger *zap.Logger, baseURL string) *QRHandler {
	return &QRHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// RegisterRoutes registers all QR handler routes
func (h *QRHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/qr", func(r chi.Router) {
		r.Post("/text", h.GenerateText)
		r.Post("/url", h.GenerateURL)
		r.Post("/pdf", h.GeneratePDF)
		r.Post("/image", h.GenerateImage)
		r.Get("/list", h.List)
		r.Get("/detail/{id}", h.GetByID)
		r.Get("/stats", h.Stats)
		r.Get("/artifact/{ref}", h.Artifact)
	})
	r.Get("/download/{id}", h.Download)
}

// GenerateText handles POST /api/qr/text
// @Summary Generate a QR code from text
// @Description Encode up to 2000 characters of text. Size is the module size in pixels (5-20).
// @Tags qr
// @Accept json
// @Produce json
// @Param request body models.TextRequest true "Text and rendering options"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/text [post]
func (h *QRHandler) GenerateText(w http.ResponseWriter, r *http.Request) {
	var req models.TextRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	options := optionsOrDefault(req.Size, req.FillColor, req.BackColor)
	h.generate(w, r, models.GenerateRequest{
		ContentType: models.ContentTypeText,
		Content:     req.Text,
		ModuleSize:  options.ModuleSize,
		Foreground:  options.Foreground,
		Background:  options.Background,
	})
}

// GenerateURL handles POST /api/qr/url
// @Summary Generate a QR code from a URL
// @Description Encode an http(s) URL of up to 500 characters. A missing scheme defaults to https.
// @Tags qr
// @Accept json
// @Produce json
// @Param request body models.URLRequest true "URL and rendering options"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/url [post]
func (h *QRHandler) GenerateURL(w http.ResponseWriter, r *http.Request) {
	var req models.URLRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	options := optionsOrDefault(req.Size, req.FillColor, req.BackColor)
	h.generate(w, r, models.GenerateRequest{
		ContentType: models.ContentTypeURL,
		Content:     req.URL,
		ModuleSize:  options.ModuleSize,
		Foreground:  options.Foreground,
		Background:  options.Background,
	})
}

// GeneratePDF handles POST /api/qr/pdf
// @Summary Generate a QR code for a PDF file
// @Description Upload a PDF of up to 10MB. The code encodes the file name and is rendered black on white.
// @Tags qr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param size formData int false "Module size in pixels (5-20)"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/pdf [post]
func (h *QRHandler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	h.generateFromUpload(w, r, models.ContentTypePDF)
}

// GenerateImage handles POST /api/qr/image
// @Summary Generate a QR code for an image file
// @Description Upload a JPG, PNG, GIF, BMP or WEBP image of up to 10MB. The code encodes the file name and is rendered black on white.
// @Tags qr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param size formData int false "Module size in pixels (5-20)"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/image [post]
func (h *QRHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	h.generateFromUpload(w, r, models.ContentTypeImage)
}

func (h *QRHandler) generateFromUpload(w http.ResponseWriter, r *http.Request, contentType models.ContentType) {
	if r.ContentLength > MaxRequestSize {
		h.RespondError(w, http.StatusBadRequest, fileTooLargeMessage)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondError(w, http.StatusBadRequest, fileTooLargeMessage)
			return
		}
		h.RequestLogger(r).Info("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	size := qr.DefaultOptions().ModuleSize
	if raw := strings.TrimSpace(r.FormValue("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "size must be an integer")
			return
		}
		size = n
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "Please select a file to upload")
		return
	}
	defer file.Close()

	h.generate(w, r, models.GenerateRequest{
		ContentType: contentType,
		File: &models.FileUpload{
			Name:   header.Filename,
			Size:   header.Size,
			Reader: file,
		},
		ModuleSize: size,
	})
}

// generate runs a generation and writes the response
func (h *QRHandler) generate(w http.ResponseWriter, r *http.Request, req models.GenerateRequest) {
	req.Origin = requestOrigin(r)

	record, image, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to generate qr code")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.GenerateResponse{
		Success:     true,
		QRID:        record.ID,
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
		Content:     record.ContentPreview(),
		DownloadURL: fmt.Sprintf("/download/%s/", record.ID),
		CreatedAt:   record.CreatedAt.Format(time.RFC3339),
	})
}

// List handles GET /api/qr/list
// @Summary List recent QR codes
// @Description Get the most recently generated QR codes, newest first
// @Tags qr
// @Produce json
// @Success 200 {array} models.QRCodeResponse
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/list [get]
func (h *QRHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list qr codes")
		return
	}

	response := make([]models.QRCodeResponse, 0, len(codes))
	for i := range codes {
		response = append(response, h.toResponse(&codes[i]))
	}
	h.RespondJSON(w, http.StatusOK, response)
}

// GetByID handles GET /api/qr/detail/{id}
// @Summary Get QR code details
// @Description Get a QR code record by its ID
// @Tags qr
// @Produce json
// @Param id path string true "QR code ID"
// @Success 200 {object} models.QRCodeResponse
// @Failure 404 {object} models.ErrorResponse "QR code not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/detail/{id} [get]
func (h *QRHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get qr code")
		return
	}

	h.RespondJSON(w, http.StatusOK, h.toResponse(record))
}

// Stats handles GET /api/qr/stats
// @Summary Get usage statistics
// @Description Get totals, per type counts, today's count, the most downloaded code and recent downloads
// @Tags qr
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/qr/stats [get]
func (h *QRHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get stats")
		return
	}

	response := models.StatsResponse{
		Total:          stats.Total,
		TotalDownloads: stats.TotalDownloads,
		ByType:         stats.ByType,
		TodayCount:     stats.TodayCount,
		RecentActivity: make([]models.QRCodeResponse, 0, len(stats.RecentActivity)),
	}
	if stats.MostDownloaded != nil {
		most := h.toResponse(stats.MostDownloaded)
		response.MostDownloaded = &most
	}
	for i := range stats.RecentActivity {
		response.RecentActivity = append(response.RecentActivity, h.toResponse(&stats.RecentActivity[i]))
	}

	h.RespondJSON(w, http.StatusOK, response)
}

// Download handles GET /download/{id}
// @Summary Download a QR code
// @Description Download the PNG of a QR code and increment its download counter
// @Tags qr
// @Produce image/png
// @Param id path string true "QR code ID"
// @Success 200 {file} binary "PNG image"
// @Failure 404 {object} models.ErrorResponse "QR code not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /download/{id} [get]
func (h *QRHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	download, err := h.service.Download(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to download qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="qr_%s.png"`, download.Record.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(download.Data); err != nil {
		h.RequestLogger(r).Error("failed to write download", zap.Error(err), zap.String("record_id", id))
	}
}

// Artifact handles GET /api/qr/artifact/{ref}
// @Summary Get a rendered QR code image
// @Description Serve the PNG of a QR code inline without counting a download
// @Tags qr
// @Produce image/png
// @Param ref path string true "Artifact ref"
// @Success 200 {file} binary "PNG image"
// @Failure 404 {object} models.ErrorResponse "Image not found"
// @Router /api/qr/artifact/{ref} [get]
func (h *QRHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Artifact(chi.URLParam(r, "ref"))
	if err != nil {
		h.respondServiceError(w, r, err, "failed to read image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.RequestLogger(r).Error("failed to write image", zap.Error(err))
	}
}

// decodeJSON decodes and validates a JSON body, writing a 400 response on failure
func (h *QRHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validation.Get().Struct(dst); err != nil {
		h.RespondError(w, http.StatusBadRequest, validation.Message(err))
		return false
	}
	return true
}

// respondServiceError maps a service error to a response status
func (h *QRHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrPayloadTooLarge):
		h.RespondError(w, http.StatusBadRequest, "content is too large to fit in a QR code")
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrRender):
		h.RespondError(w, http.StatusBadRequest, reason(err))
	case errors.Is(err, models.ErrNotFound):
		h.RespondError(w, http.StatusNotFound, "qr code not found")
	default:
		h.RequestLogger(r).Error(fallback, zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

// reason returns the innermost message of a wrapped error chain
func reason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// toResponse builds the public view of a record
func (h *QRHandler) toResponse(q *models.QRCode) models.QRCodeResponse {
	response := models.QRCodeResponse{
		ID:               q.ID,
		ContentType:      q.ContentType,
		ContentPreview:   q.ContentPreview(),
		Size:             q.Options.ModuleSize,
		FillColor:        q.Options.Foreground,
		BackColor:        q.Options.Background,
		CreatedAt:        q.CreatedAt,
		DownloadCount:    q.DownloadCount,
		LastDownloadedAt: q.LastDownloadedAt,
		QRImageURL:       fmt.Sprintf("%s/api/qr/artifact/%s", h.baseURL, q.ArtifactRef),
	}
	if q.ContentType.IsFile() {
		size := q.SourceFileSize
		response.FileSize = &size
	}
	return response
}

// optionsOrDefault fills omitted rendering options from qr.DefaultOptions
func optionsOrDefault(size *int, fill, back string) models.RenderOptions {
	options := qr.DefaultOptions()
	if size != nil {
		options.ModuleSize = *size
	}
	if c := strings.TrimSpace(fill); c != "" {
		options.Foreground = c
	}
	if c := strings.TrimSpace(back); c != "" {
		options.Background = c
	}
	return options
}

// requestOrigin extracts best-effort client metadata
func requestOrigin(r *http.Request) models.RequestOrigin {
	return models.RequestOrigin{
		IPAddress: truncate(clientIP(r), maxIPLength),
		UserAgent: truncate(r.UserAgent(), maxUserAgentLength),
	}
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// clientIP returns the first X-Forwarded-For entry, else the host of RemoteAddr
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

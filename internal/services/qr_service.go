package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/qrtist/backend/internal/metrics"
	"github.com/qrtist/backend/internal/models"
	"github.com/qrtist/backend/internal/qr"
	"github.com/qrtist/backend/internal/validation"
	"go.uber.org/zap"
)

const (
	MaxTextLength = 2000
	MaxURLLength  = 500
	MaxFileSize   = 10 * 1024 * 1024 // 10MB

	maxFileNameLength = 255

	recentActivityLimit = 10
)

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// QRCodeRepository is the interface that wraps methods for qr_codes table data access
type QRCodeRepository interface {
	// Method Create inserts a new record. Returns ErrConflict if the id is taken.
	Create(ctx context.Context, q *models.QRCode) error
	// Method GetByID retrieves a record by its ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.QRCode, error)
	// Method List retrieves at most "limit" records, most recent first.
	List(ctx context.Context, limit int) ([]models.QRCode, error)
	// Method IncrementDownload atomically bumps the download counter and returns the updated record.
	IncrementDownload(ctx context.Context, id string) (*models.QRCode, error)
	// Method CountByType counts records per content type.
	CountByType(ctx context.Context) (map[models.ContentType]int64, error)
	// Method Count counts every record.
	Count(ctx context.Context) (int64, error)
	// Method CountToday counts records created during the current UTC day.
	CountToday(ctx context.Context) (int64, error)
	// Method TotalDownloads sums all download counters.
	TotalDownloads(ctx context.Context) (int64, error)
	// Method MostDownloaded returns the record with the most downloads or nil.
	MostDownloaded(ctx context.Context) (*models.QRCode, error)
	// Method RecentlyDownloaded returns at most "limit" records ordered by last download time.
	RecentlyDownloaded(ctx context.Context, limit int) ([]models.QRCode, error)
}

// ArtifactStore stores rendered images under unique keys
type ArtifactStore interface {
	Put(data []byte) (string, error)
	Get(ref string) ([]byte, error)
}

// UploadStore stores original uploaded files
type UploadStore interface {
	Save(contentType models.ContentType, fileName string, reader io.Reader, maxSize int64) (string, int64, error)
	Delete(ref string) error
}

// Renderer turns a payload into PNG bytes
type Renderer interface {
	Render(payload string, options models.RenderOptions) ([]byte, error)
}

type qrService struct {
	repo        QRCodeRepository
	artifacts   ArtifactStore
	uploads     UploadStore
	renderer    Renderer
	logger      *zap.Logger
	recentLimit int
	newID       func() string
	now         func() time.Time
}

// NewQRService creates a new QR code service.
// "recentLimit" bounds the number of records returned by List.
func NewQRService(repo QRCodeRepository, artifacts ArtifactStore, uploads UploadStore, renderer Renderer, logger *zap.Logger, recentLimit int) *qrService {
	return &qrService{
		repo:        repo,
		artifacts:   artifacts,
		uploads:     uploads,
		renderer:    renderer,
		logger:      logger,
		recentLimit: recentLimit,
		newID:       func() string { return uuid.New().String() },
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Generate validates the request, renders the QR code, stores the artifact and creates the record.
//
// Every validation runs before the first durable write. The artifact is written before the
// record, so a visible record always resolves to an existing artifact.
// The rendered PNG is returned together with the created record.
func (s *qrService) Generate(ctx context.Context, req models.GenerateRequest) (*models.QRCode, []byte, error) {
	record, image, err := s.generate(ctx, req)
	metrics.ObserveGeneration(string(req.ContentType), err)
	return record, image, err
}

func (s *qrService) generate(ctx context.Context, req models.GenerateRequest) (*models.QRCode, []byte, error) {
	if !req.ContentType.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown content type %q", models.ErrValidation, req.ContentType)
	}

	foreground, background := req.Foreground, req.Background
	if req.ContentType.IsFile() {
		foreground, background = qr.DefaultForeground, qr.DefaultBackground
	}

	options, err := qr.ValidateOptions(req.ModuleSize, foreground, background)
	if err != nil {
		return nil, nil, err
	}

	record := &models.QRCode{
		ContentType: req.ContentType,
		Options:     options,
		Origin:      req.Origin,
	}

	var payload string
	switch req.ContentType {
	case models.ContentTypeText:
		payload, err = normalizeText(req.Content)
		record.OriginalContent = payload
	case models.ContentTypeURL:
		payload, err = normalizeURL(req.Content)
		record.OriginalContent = payload
	case models.ContentTypePDF, models.ContentTypeImage:
		payload, err = s.storeUpload(req.ContentType, req.File, record)
	}
	if err != nil {
		return nil, nil, err
	}

	image, err := s.renderer.Render(payload, options)
	if err != nil {
		s.discardUpload(record)
		return nil, nil, err
	}

	artifactRef, err := s.artifacts.Put(image)
	if err != nil {
		s.logger.Error("failed to store artifact", zap.Error(err))
		s.discardUpload(record)
		return nil, nil, fmt.Errorf("%w: failed to store artifact: %v", models.ErrPersistence, err)
	}

	record.ArtifactRef = artifactRef
	record.CreatedAt = s.now()

	if err := s.create(ctx, record); err != nil {
		s.logger.Warn("orphaned artifact left after failed record creation",
			zap.Error(err),
			zap.String("artifact_ref", artifactRef),
		)
		metrics.OrphanedArtifactsTotal.Inc()
		s.discardUpload(record)
		return nil, nil, fmt.Errorf("%w: failed to create qr code: %v", models.ErrPersistence, err)
	}

	return record, image, nil
}

// create inserts the record, regenerating its id once on a collision
func (s *qrService) create(ctx context.Context, record *models.QRCode) error {
	record.ID = s.newID()
	err := s.repo.Create(ctx, record)
	if !errors.Is(err, models.ErrConflict) {
		return err
	}

	s.logger.Warn("qr code id collision, retrying", zap.String("record_id", record.ID))
	record.ID = s.newID()
	return s.repo.Create(ctx, record)
}

// storeUpload validates and persists an uploaded file and returns the payload to encode
func (s *qrService) storeUpload(contentType models.ContentType, file *models.FileUpload, record *models.QRCode) (string, error) {
	if file == nil || file.Reader == nil {
		return "", fmt.Errorf("%w: file is required", models.ErrEmptyPayload)
	}

	name := baseName(file.Name)
	if name == "" {
		return "", fmt.Errorf("%w: file name is required", models.ErrInvalidFileType)
	}
	if utf8.RuneCountInString(name) > maxFileNameLength {
		return "", fmt.Errorf("%w: file name must be at most %d characters", models.ErrInvalidFileType, maxFileNameLength)
	}
	if file.Size > MaxFileSize {
		return "", fmt.Errorf("%w: file size should not exceed 10MB", models.ErrFileTooLarge)
	}
	if err := validateExtension(contentType, name); err != nil {
		return "", err
	}

	ref, size, err := s.uploads.Save(contentType, name, file.Reader, MaxFileSize)
	if err != nil {
		if errors.Is(err, models.ErrFileTooLarge) {
			return "", err
		}
		s.logger.Error("failed to store uploaded file", zap.Error(err), zap.String("file_name", name))
		return "", fmt.Errorf("%w: failed to store uploaded file: %v", models.ErrPersistence, err)
	}

	record.SourceFileRef = ref
	record.SourceFileName = name
	record.SourceFileSize = size

	return "File: " + name, nil
}

// discardUpload removes an upload whose generation failed before the artifact existed
func (s *qrService) discardUpload(record *models.QRCode) {
	if record.SourceFileRef == "" {
		return
	}
	if err := s.uploads.Delete(record.SourceFileRef); err != nil {
		s.logger.Warn("failed to delete upload of failed generation",
			zap.Error(err), zap.String("source_file_ref", record.SourceFileRef))
	}
}

// validateExtension checks the file extension against the content type
func validateExtension(contentType models.ContentType, name string) error {
	ext := strings.ToLower(filepath.Ext(name))

	switch contentType {
	case models.ContentTypePDF:
		if ext != ".pdf" {
			return fmt.Errorf("%w: only PDF files are allowed", models.ErrInvalidFileType)
		}
	case models.ContentTypeImage:
		if !slices.Contains(allowedImageExtensions, ext) {
			return fmt.Errorf("%w: only image files (JPG, PNG, GIF, BMP, WEBP) are allowed", models.ErrInvalidFileType)
		}
	}
	return nil
}

// baseName strips any client supplied directory from an uploaded file name
func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// normalizeText trims the text and enforces the length limit
func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", models.ErrEmptyPayload)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", fmt.Errorf("%w: text must be at most %d characters", models.ErrContentTooLong, MaxTextLength)
	}
	return text, nil
}

// normalizeURL trims the url, adds an https scheme when none is given and validates it
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", models.ErrEmptyPayload)
	}
	if utf8.RuneCountInString(raw) > MaxURLLength {
		return "", fmt.Errorf("%w: url must be at most %d characters", models.ErrContentTooLong, MaxURLLength)
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.Contains(raw, "://"):
		return "", fmt.Errorf("%w: please enter a valid URL", models.ErrInvalidURL)
	default:
		raw = "https://" + raw
	}

	if err := validation.Get().Var(raw, "http_url"); err != nil {
		return "", fmt.Errorf("%w: please enter a valid URL", models.ErrInvalidURL)
	}
	return raw, nil
}

// GetByID retrieves a record by its ID
func (s *qrService) GetByID(ctx context.Context, id string) (*models.QRCode, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: qr code %s", models.ErrNotFound, id)
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to get qr code", zap.Error(err), zap.String("record_id", id))
		}
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}
	return record, nil
}

// List retrieves the most recent records
func (s *qrService) List(ctx context.Context) ([]models.QRCode, error) {
	codes, err := s.repo.List(ctx, s.recentLimit)
	if err != nil {
		s.logger.Error("failed to list qr codes", zap.Error(err))
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	return codes, nil
}

// Download reads the artifact of a record and then increments its download counter.
// The counter is only incremented once the artifact bytes are in hand.
func (s *qrService) Download(ctx context.Context, id string) (*models.Download, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.artifacts.Get(record.ArtifactRef)
	if err != nil {
		s.logger.Error("artifact missing for visible record", zap.Error(err),
			zap.String("record_id", id), zap.String("artifact_ref", record.ArtifactRef))
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	updated, err := s.repo.IncrementDownload(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to increment download count", zap.Error(err), zap.String("record_id", id))
		}
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	metrics.DownloadsTotal.WithLabelValues(string(updated.ContentType)).Inc()
	return &models.Download{Record: updated, Data: data}, nil
}

// Artifact reads a rendered image by its artifact ref without counting a download
func (s *qrService) Artifact(ref string) ([]byte, error) {
	data, err := s.artifacts.Get(ref)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to read artifact", zap.Error(err), zap.String("artifact_ref", ref))
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// Stats aggregates usage statistics
func (s *qrService) Stats(ctx context.Context) (*models.Stats, error) {
	var (
		stats models.Stats
		err   error
	)

	if stats.Total, err = s.repo.Count(ctx); err != nil {
		return nil, s.statsError(err)
	}
	if stats.TotalDownloads, err = s.repo.TotalDownloads(ctx); err != nil {
		return nil, s.statsError(err)
	}
	if stats.ByType, err = s.repo.CountByType(ctx); err != nil {
		return nil, s.statsError(err)
	}
	if stats.TodayCount, err = s.repo.CountToday(ctx); err != nil {
		return nil, s.statsError(err)
	}
	if stats.MostDownloaded, err = s.repo.MostDownloaded(ctx); err != nil {
		return nil, s.statsError(err)
	}
	if stats.RecentActivity, err = s.repo.RecentlyDownloaded(ctx, recentActivityLimit); err != nil {
		return nil, s.statsError(err)
	}

	return &stats, nil
}

func (s *qrService) statsError(err error) error {
	s.logger.Error("failed to compute stats", zap.Error(err))
	return fmt.Errorf("failed to compute stats: %w", err)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qrtist/backend/internal/models"
	"github.com/qrtist/backend/internal/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockQRCodeRepository is a mutex guarded in-memory implementation of QRCodeRepository
type mockQRCodeRepository struct {
	mu             sync.Mutex
	records        map[string]*models.QRCode
	createErrs     []error
	createCalls    int
	getErr         error
	incrementCalls int
	statsErr       error
	lastLimit      int
}

func newMockQRCodeRepository() *mockQRCodeRepository {
	return &mockQRCodeRepository{records: make(map[string]*models.QRCode)}
}

func (m *mockQRCodeRepository) Create(ctx context.Context, q *models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.records[q.ID]; ok {
		return models.ErrConflict
	}
	stored := *q
	m.records[q.ID] = &stored
	return nil
}

func (m *mockQRCodeRepository) GetByID(ctx context.Context, id string) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	q, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: qr code %s", models.ErrNotFound, id)
	}
	copied := *q
	return &copied, nil
}

func (m *mockQRCodeRepository) List(ctx context.Context, limit int) ([]models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.getErr != nil {
		return nil, m.getErr
	}
	codes := make([]models.QRCode, 0, len(m.records))
	for _, q := range m.records {
		codes = append(codes, *q)
	}
	return codes, nil
}

func (m *mockQRCodeRepository) IncrementDownload(ctx context.Context, id string) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementCalls++
	q, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: qr code %s", models.ErrNotFound, id)
	}
	now := time.Now().UTC()
	q.DownloadCount++
	q.LastDownloadedAt = &now
	copied := *q
	return &copied, nil
}

func (m *mockQRCodeRepository) CountByType(ctx context.Context) (map[models.ContentType]int64, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.ContentType]int64)
	for _, t := range models.ContentTypes {
		counts[t] = 0
	}
	for _, q := range m.records {
		counts[q.ContentType]++
	}
	return counts, nil
}

func (m *mockQRCodeRepository) Count(ctx context.Context) (int64, error) {
	if m.statsErr != nil {
		return 0, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *mockQRCodeRepository) CountToday(ctx context.Context) (int64, error) {
	return m.Count(ctx)
}

func (m *mockQRCodeRepository) TotalDownloads(ctx context.Context) (int64, error) {
	if m.statsErr != nil {
		return 0, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, q := range m.records {
		total += q.DownloadCount
	}
	return total, nil
}

func (m *mockQRCodeRepository) MostDownloaded(ctx context.Context) (*models.QRCode, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var most *models.QRCode
	for _, q := range m.records {
		if most == nil || q.DownloadCount > most.DownloadCount {
			most = q
		}
	}
	if most == nil {
		return nil, nil
	}
	copied := *most
	return &copied, nil
}

func (m *mockQRCodeRepository) RecentlyDownloaded(ctx context.Context, limit int) ([]models.QRCode, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	codes := make([]models.QRCode, 0)
	for _, q := range m.records {
		if q.LastDownloadedAt != nil {
			codes = append(codes, *q)
		}
	}
	return codes, nil
}

// mockArtifactStore is an in-memory implementation of ArtifactStore
type mockArtifactStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	next    int
	putErr  error
	getErr  error
	getRefs []string
}

func newMockArtifactStore() *mockArtifactStore {
	return &mockArtifactStore{blobs: make(map[string][]byte)}
}

func (m *mockArtifactStore) Put(data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.next++
	ref := fmt.Sprintf("qr_%032x.png", m.next)
	m.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (m *mockArtifactStore) Get(ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getRefs = append(m.getRefs, ref)
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: artifact %q", models.ErrNotFound, ref)
	}
	return data, nil
}

// mockUploadStore records saved and deleted uploads
type mockUploadStore struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newMockUploadStore() *mockUploadStore {
	return &mockUploadStore{saved: make(map[string][]byte)}
}

func (m *mockUploadStore) Save(contentType models.ContentType, fileName string, reader io.Reader, maxSize int64) (string, int64, error) {
	if m.saveErr != nil {
		return "", 0, m.saveErr
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return "", 0, err
	}
	if int64(len(data)) > maxSize {
		return "", 0, models.ErrFileTooLarge
	}
	ref := fmt.Sprintf("uploads/%s/%d%s", contentType, len(m.saved), strings.ToLower(fileName[strings.LastIndex(fileName, "."):]))
	m.saved[ref] = data
	return ref, int64(len(data)), nil
}

func (m *mockUploadStore) Delete(ref string) error {
	m.deleted = append(m.deleted, ref)
	delete(m.saved, ref)
	return nil
}

// mockRenderer records render calls
type mockRenderer struct {
	mu       sync.Mutex
	payloads []string
	options  []models.RenderOptions
	err      error
}

func (m *mockRenderer) Render(payload string, options models.RenderOptions) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	m.options = append(m.options, options)
	if m.err != nil {
		return nil, m.err
	}
	return []byte("png:" + payload), nil
}

type testDeps struct {
	repo      *mockQRCodeRepository
	artifacts *mockArtifactStore
	uploads   *mockUploadStore
	renderer  *mockRenderer
	logs      *observer.ObservedLogs
}

func setupTestService() (*qrService, *testDeps) {
	core, logs := observer.New(zap.DebugLevel)
	deps := &testDeps{
		repo:      newMockQRCodeRepository(),
		artifacts: newMockArtifactStore(),
		uploads:   newMockUploadStore(),
		renderer:  &mockRenderer{},
		logs:      logs,
	}
	svc := NewQRService(deps.repo, deps.artifacts, deps.uploads, deps.renderer, zap.New(core), 100)
	return svc, deps
}

func textRequest(text string) models.GenerateRequest {
	return models.GenerateRequest{
		ContentType: models.ContentTypeText,
		Content:     text,
		ModuleSize:  qr.DefaultModuleSize,
		Foreground:  qr.DefaultForeground,
		Background:  qr.DefaultBackground,
	}
}

func fileRequest(contentType models.ContentType, name string, data string) models.GenerateRequest {
	return models.GenerateRequest{
		ContentType: contentType,
		File:        &models.FileUpload{Name: name, Size: int64(len(data)), Reader: strings.NewReader(data)},
		ModuleSize:  qr.DefaultModuleSize,
		Foreground:  "#FF0000",
		Background:  "#00FF00",
	}
}

func TestNewQRService(t *testing.T) {
	logger := zap.NewNop()
	repo := newMockQRCodeRepository()
	artifacts := newMockArtifactStore()
	uploads := newMockUploadStore()
	renderer := &mockRenderer{}

	svc := NewQRService(repo, artifacts, uploads, renderer, logger, 50)

	assert.NotNil(t, svc)
	assert.Equal(t, repo, svc.repo)
	assert.Equal(t, artifacts, svc.artifacts)
	assert.Equal(t, uploads, svc.uploads)
	assert.Equal(t, renderer, svc.renderer)
	assert.Equal(t, logger, svc.logger)
	assert.Equal(t, 50, svc.recentLimit)
}

func TestQRService_Generate_Text(t *testing.T) {
	tests := []struct {
		name            string
		req             models.GenerateRequest
		expectedErr     error
		expectedPayload string
		expectedOptions models.RenderOptions
	}{
		{
			name:            "success",
			req:             textRequest("hello world"),
			expectedPayload: "hello world",
			expectedOptions: models.RenderOptions{ModuleSize: 10, Foreground: "#000000", Background: "#FFFFFF"},
		},
		{
			name: "trims and normalizes colors",
			req: models.GenerateRequest{
				ContentType: models.ContentTypeText, Content: "  padded  ", ModuleSize: 20,
				Foreground: "1a2b3c", Background: "#ffeedd",
			},
			expectedPayload: "padded",
			expectedOptions: models.RenderOptions{ModuleSize: 20, Foreground: "#1A2B3C", Background: "#FFEEDD"},
		},
		{
			name:            "2000 multi byte characters",
			req:             textRequest(strings.Repeat("Ж", MaxTextLength)),
			expectedPayload: strings.Repeat("Ж", MaxTextLength),
			expectedOptions: models.RenderOptions{ModuleSize: 10, Foreground: "#000000", Background: "#FFFFFF"},
		},
		{name: "empty text", req: textRequest("   "), expectedErr: models.ErrEmptyPayload},
		{name: "text too long", req: textRequest(strings.Repeat("a", MaxTextLength+1)), expectedErr: models.ErrContentTooLong},
		{
			name:        "size too small",
			req:         models.GenerateRequest{ContentType: models.ContentTypeText, Content: "x", ModuleSize: 4, Foreground: "#000000", Background: "#FFFFFF"},
			expectedErr: models.ErrInvalidSize,
		},
		{
			name:        "size too large",
			req:         models.GenerateRequest{ContentType: models.ContentTypeText, Content: "x", ModuleSize: 21, Foreground: "#000000", Background: "#FFFFFF"},
			expectedErr: models.ErrInvalidSize,
		},
		{
			name:        "invalid color",
			req:         models.GenerateRequest{ContentType: models.ContentTypeText, Content: "x", ModuleSize: 10, Foreground: "#ZZZZZZ", Background: "#FFFFFF"},
			expectedErr: models.ErrInvalidColor,
		},
		{
			name:        "unknown content type",
			req:         models.GenerateRequest{ContentType: "vcard", Content: "x", ModuleSize: 10, Foreground: "#000000", Background: "#FFFFFF"},
			expectedErr: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := setupTestService()

			record, image, err := svc.Generate(context.Background(), tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.ErrorIs(t, err, models.ErrValidation)
				assert.Nil(t, record)
				assert.Nil(t, image)
				assert.Empty(t, deps.renderer.payloads)
				assert.Empty(t, deps.artifacts.blobs)
				assert.Zero(t, deps.repo.createCalls)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, []string{tt.expectedPayload}, deps.renderer.payloads)
			assert.Equal(t, tt.expectedOptions, record.Options)
			assert.Equal(t, tt.expectedPayload, record.OriginalContent)
			assert.Equal(t, []byte("png:"+tt.expectedPayload), image)
			assert.Equal(t, image, deps.artifacts.blobs[record.ArtifactRef])
			assert.Zero(t, record.DownloadCount)
			assert.Nil(t, record.LastDownloadedAt)
			assert.Equal(t, time.UTC, record.CreatedAt.Location())

			stored, err := deps.repo.GetByID(context.Background(), record.ID)
			require.NoError(t, err)
			assert.Equal(t, record.ArtifactRef, stored.ArtifactRef)
		})
	}
}

func TestQRService_Generate_URL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expected    string
		expectedErr error
	}{
		{name: "bare host gets https", url: "example.com", expected: "https://example.com"},
		{name: "http kept", url: "http://example.com/path?q=1", expected: "http://example.com/path?q=1"},
		{name: "https kept", url: "  https://example.com  ", expected: "https://example.com"},
		{name: "other scheme rejected", url: "ftp://example.com", expectedErr: models.ErrInvalidURL},
		{name: "javascript rejected", url: "javascript://alert(1)", expectedErr: models.ErrInvalidURL},
		{name: "malformed host", url: "exa mple.com", expectedErr: models.ErrInvalidURL},
		{name: "empty", url: "", expectedErr: models.ErrEmptyPayload},
		{name: "too long", url: "example.com/" + strings.Repeat("a", MaxURLLength), expectedErr: models.ErrContentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := setupTestService()
			req := textRequest(tt.url)
			req.ContentType = models.ContentTypeURL

			record, _, err := svc.Generate(context.Background(), req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, record)
				assert.Zero(t, deps.repo.createCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, record.OriginalContent)
			assert.Equal(t, []string{tt.expected}, deps.renderer.payloads)
		})
	}
}

func TestQRService_Generate_File(t *testing.T) {
	tests := []struct {
		name             string
		req              models.GenerateRequest
		expectedErr      error
		expectedPayload  string
		expectedFileName string
	}{
		{
			name:             "pdf",
			req:              fileRequest(models.ContentTypePDF, "report.pdf", "%PDF-1.4"),
			expectedPayload:  "File: report.pdf",
			expectedFileName: "report.pdf",
		},
		{
			name:             "image with upper case extension",
			req:              fileRequest(models.ContentTypeImage, "Photo.WEBP", "RIFF"),
			expectedPayload:  "File: Photo.WEBP",
			expectedFileName: "Photo.WEBP",
		},
		{
			name:             "client directories are stripped",
			req:              fileRequest(models.ContentTypeImage, `C:\Users\me\..\cat.jpg`, "jpeg"),
			expectedPayload:  "File: cat.jpg",
			expectedFileName: "cat.jpg",
		},
		{name: "pdf with image extension", req: fileRequest(models.ContentTypePDF, "photo.png", "x"), expectedErr: models.ErrInvalidFileType},
		{name: "image with pdf extension", req: fileRequest(models.ContentTypeImage, "report.pdf", "x"), expectedErr: models.ErrInvalidFileType},
		{name: "image without extension", req: fileRequest(models.ContentTypeImage, "photo", "x"), expectedErr: models.ErrInvalidFileType},
		{
			name: "declared size over limit",
			req: models.GenerateRequest{
				ContentType: models.ContentTypePDF, ModuleSize: 10,
				File: &models.FileUpload{Name: "big.pdf", Size: MaxFileSize + 1, Reader: strings.NewReader("x")},
			},
			expectedErr: models.ErrFileTooLarge,
		},
		{
			name:        "streamed size over limit",
			req:         models.GenerateRequest{ContentType: models.ContentTypePDF, ModuleSize: 10, File: &models.FileUpload{Name: "big.pdf", Size: 1, Reader: strings.NewReader(strings.Repeat("x", MaxFileSize+1))}},
			expectedErr: models.ErrFileTooLarge,
		},
		{name: "missing file", req: models.GenerateRequest{ContentType: models.ContentTypeImage, ModuleSize: 10}, expectedErr: models.ErrEmptyPayload},
		{name: "invalid size still rejected", req: models.GenerateRequest{ContentType: models.ContentTypePDF, ModuleSize: 30, File: &models.FileUpload{Name: "a.pdf", Reader: strings.NewReader("x")}}, expectedErr: models.ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := setupTestService()

			record, _, err := svc.Generate(context.Background(), tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, record)
				assert.Empty(t, deps.uploads.saved)
				assert.Empty(t, deps.artifacts.blobs)
				assert.Zero(t, deps.repo.createCalls)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, []string{tt.expectedPayload}, deps.renderer.payloads)
			assert.Equal(t, "#000000", record.Options.Foreground)
			assert.Equal(t, "#FFFFFF", record.Options.Background)
			assert.Equal(t, tt.expectedFileName, record.SourceFileName)
			assert.Equal(t, tt.req.File.Size, record.SourceFileSize)
			assert.Contains(t, deps.uploads.saved, record.SourceFileRef)
			assert.Empty(t, record.OriginalContent)
			assert.Equal(t, "File: "+tt.expectedFileName, record.ContentPreview())
		})
	}
}

func TestQRService_Generate_RenderFailure(t *testing.T) {
	svc, deps := setupTestService()
	deps.renderer.err = fmt.Errorf("%w: data too long", models.ErrPayloadTooLarge)

	record, _, err := svc.Generate(context.Background(), fileRequest(models.ContentTypePDF, "report.pdf", "pdf"))

	assert.ErrorIs(t, err, models.ErrPayloadTooLarge)
	assert.ErrorIs(t, err, models.ErrRender)
	assert.Nil(t, record)
	assert.Empty(t, deps.artifacts.blobs)
	assert.Zero(t, deps.repo.createCalls)
	assert.Len(t, deps.uploads.deleted, 1)
	assert.Empty(t, deps.uploads.saved)
}

func TestQRService_Generate_ArtifactFailure(t *testing.T) {
	svc, deps := setupTestService()
	deps.artifacts.putErr = errors.New("disk full")

	record, _, err := svc.Generate(context.Background(), textRequest("hello"))

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Nil(t, record)
	assert.Zero(t, deps.repo.createCalls)
	assert.Empty(t, deps.repo.records)
}

func TestQRService_Generate_RecordFailureLeavesOrphan(t *testing.T) {
	svc, deps := setupTestService()
	deps.repo.createErrs = []error{errors.New("connection reset")}

	record, _, err := svc.Generate(context.Background(), textRequest("hello"))

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Nil(t, record)
	assert.Len(t, deps.artifacts.blobs, 1)
	assert.Empty(t, deps.repo.records)

	entries := deps.logs.FilterMessage("orphaned artifact left after failed record creation").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	for ref := range deps.artifacts.blobs {
		assert.Equal(t, ref, entries[0].ContextMap()["artifact_ref"])
	}
}

func TestQRService_Generate_RecordFailureDiscardsUpload(t *testing.T) {
	svc, deps := setupTestService()
	deps.repo.createErrs = []error{errors.New("connection reset")}

	record, _, err := svc.Generate(context.Background(), fileRequest(models.ContentTypeImage, "photo.png", "png data"))

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Nil(t, record)
	assert.Len(t, deps.artifacts.blobs, 1)
	assert.Len(t, deps.uploads.deleted, 1)
	assert.Empty(t, deps.uploads.saved)
	assert.Len(t, deps.logs.FilterMessage("orphaned artifact left after failed record creation").All(), 1)
}

func TestQRService_Generate_IDCollision(t *testing.T) {
	t.Run("retried once", func(t *testing.T) {
		svc, deps := setupTestService()
		deps.repo.createErrs = []error{fmt.Errorf("%w: duplicate", models.ErrConflict)}

		record, _, err := svc.Generate(context.Background(), textRequest("hello"))

		require.NoError(t, err)
		assert.Equal(t, 2, deps.repo.createCalls)
		assert.Contains(t, deps.repo.records, record.ID)
	})

	t.Run("second collision fails", func(t *testing.T) {
		svc, deps := setupTestService()
		deps.repo.createErrs = []error{models.ErrConflict, models.ErrConflict}

		record, _, err := svc.Generate(context.Background(), textRequest("hello"))

		assert.ErrorIs(t, err, models.ErrPersistence)
		assert.Nil(t, record)
		assert.Equal(t, 2, deps.repo.createCalls)
	})
}

func TestQRService_Generate_UniqueIDs(t *testing.T) {
	svc, deps := setupTestService()
	const n = 10000

	ids := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		record, _, err := svc.Generate(context.Background(), textRequest(fmt.Sprintf("payload %d", i)))
		require.NoError(t, err)
		ids[record.ID] = struct{}{}
	}

	assert.Len(t, ids, n)
	assert.Len(t, deps.repo.records, n)
	assert.Len(t, deps.artifacts.blobs, n)
}

func TestQRService_GetByID(t *testing.T) {
	svc, deps := setupTestService()
	created, _, err := svc.Generate(context.Background(), textRequest("hello"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		id          string
		getErr      error
		expectedErr error
	}{
		{name: "found", id: created.ID},
		{name: "unknown id", id: "2c1f8e0e-6a4e-4c8e-9d7e-2f6a1c3b4d5e", expectedErr: models.ErrNotFound},
		{name: "malformed id", id: "../etc/passwd", expectedErr: models.ErrNotFound},
		{name: "database failure", id: created.ID, getErr: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps.repo.getErr = tt.getErr
			defer func() { deps.repo.getErr = nil }()

			record, err := svc.GetByID(context.Background(), tt.id)

			if tt.expectedErr != nil || tt.getErr != nil {
				assert.Error(t, err)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
				assert.Nil(t, record)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, record.ID)
			assert.Equal(t, created.ArtifactRef, record.ArtifactRef)
		})
	}
}

func TestQRService_List(t *testing.T) {
	svc, deps := setupTestService()
	for i := 0; i < 3; i++ {
		_, _, err := svc.Generate(context.Background(), textRequest(fmt.Sprintf("item %d", i)))
		require.NoError(t, err)
	}

	codes, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, codes, 3)
	assert.Equal(t, 100, deps.repo.lastLimit)
}

func TestQRService_Download(t *testing.T) {
	t.Run("success increments after reading", func(t *testing.T) {
		svc, deps := setupTestService()
		created, image, err := svc.Generate(context.Background(), textRequest("hello"))
		require.NoError(t, err)

		download, err := svc.Download(context.Background(), created.ID)

		require.NoError(t, err)
		assert.Equal(t, image, download.Data)
		assert.Equal(t, int64(1), download.Record.DownloadCount)
		require.NotNil(t, download.Record.LastDownloadedAt)
		assert.Equal(t, []string{created.ArtifactRef}, deps.artifacts.getRefs)
	})

	t.Run("artifact read failure does not count", func(t *testing.T) {
		svc, deps := setupTestService()
		created, _, err := svc.Generate(context.Background(), textRequest("hello"))
		require.NoError(t, err)
		deps.artifacts.getErr = errors.New("io error")

		download, err := svc.Download(context.Background(), created.ID)

		assert.Error(t, err)
		assert.Nil(t, download)
		assert.Zero(t, deps.repo.incrementCalls)
		stored, _ := deps.repo.GetByID(context.Background(), created.ID)
		assert.Zero(t, stored.DownloadCount)
	})

	t.Run("unknown record", func(t *testing.T) {
		svc, deps := setupTestService()

		download, err := svc.Download(context.Background(), "2c1f8e0e-6a4e-4c8e-9d7e-2f6a1c3b4d5e")

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, download)
		assert.Empty(t, deps.artifacts.getRefs)
		assert.Zero(t, deps.repo.incrementCalls)
	})
}

func TestQRService_Download_Concurrent(t *testing.T) {
	svc, deps := setupTestService()
	created, _, err := svc.Generate(context.Background(), textRequest("hello"))
	require.NoError(t, err)

	const n = 100
	counts := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			download, err := svc.Download(context.Background(), created.ID)
			if assert.NoError(t, err) {
				counts <- download.Record.DownloadCount
			}
		}()
	}
	wg.Wait()
	close(counts)

	seen := make(map[int64]bool, n)
	for c := range counts {
		assert.False(t, seen[c], "download count %d observed twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, n)

	stored, err := deps.repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.DownloadCount)
}

func TestQRService_Artifact(t *testing.T) {
	svc, _ := setupTestService()
	created, image, err := svc.Generate(context.Background(), textRequest("hello"))
	require.NoError(t, err)

	data, err := svc.Artifact(created.ArtifactRef)
	require.NoError(t, err)
	assert.Equal(t, image, data)

	stored, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.DownloadCount)

	_, err = svc.Artifact("qr_missing.png")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestQRService_Stats(t *testing.T) {
	t.Run("aggregates", func(t *testing.T) {
		svc, deps := setupTestService()
		text, _, err := svc.Generate(context.Background(), textRequest("hello"))
		require.NoError(t, err)
		urlReq := textRequest("example.com")
		urlReq.ContentType = models.ContentTypeURL
		_, _, err = svc.Generate(context.Background(), urlReq)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = svc.Download(context.Background(), text.ID)
			require.NoError(t, err)
		}

		stats, err := svc.Stats(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Total)
		assert.Equal(t, int64(3), stats.TotalDownloads)
		assert.Equal(t, int64(2), stats.TodayCount)
		assert.Equal(t, map[models.ContentType]int64{
			models.ContentTypeText: 1, models.ContentTypeURL: 1, models.ContentTypePDF: 0, models.ContentTypeImage: 0,
		}, stats.ByType)
		require.NotNil(t, stats.MostDownloaded)
		assert.Equal(t, text.ID, stats.MostDownloaded.ID)
		assert.Len(t, stats.RecentActivity, 1)
		assert.Equal(t, recentActivityLimit, deps.repo.lastLimit)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, deps := setupTestService()
		deps.repo.statsErr = errors.New("connection refused")

		stats, err := svc.Stats(context.Background())

		assert.Error(t, err)
		assert.Nil(t, stats)
	})
}

func TestNormalizeURL(t *testing.T) {
	got, err := normalizeURL("HTTPS://Example.com")
	require.NoError(t, err)
	assert.Equal(t, "HTTPS://Example.com", got)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "report.pdf", expected: "report.pdf"},
		{in: "/tmp/report.pdf", expected: "report.pdf"},
		{in: `dir\sub\photo.png`, expected: "photo.png"},
		{in: "   ", expected: ""},
		{in: "dir/", expected: "dir"},
		{in: "/", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, baseName(tt.in))
		})
	}
}

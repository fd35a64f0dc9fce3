package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ContentType represents the kind of content a QR code was generated from
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeURL   ContentType = "url"
	ContentTypePDF   ContentType = "pdf"
	ContentTypeImage ContentType = "image"
)

// ContentTypes lists every known content type in display order
var ContentTypes = []ContentType{ContentTypeText, ContentTypeURL, ContentTypePDF, ContentTypeImage}

// IsFile reports whether the content type is backed by an uploaded file
func (c ContentType) IsFile() bool {
	return c == ContentTypePDF || c == ContentTypeImage
}

// IsValid reports whether the content type is one of the known values
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeText, ContentTypeURL, ContentTypePDF, ContentTypeImage:
		return true
	default:
		return false
	}
}

// RenderOptions holds validated rendering parameters.
// Colors are normalized to the "#RRGGBB" upper-case form.
type RenderOptions struct {
	ModuleSize int    `json:"size"`
	Foreground string `json:"fill_color"`
	Background string `json:"back_color"`
}

// RequestOrigin is best-effort metadata about the client that issued a request
type RequestOrigin struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// QRCode represents one generation request and its rendered artifact in the database
type QRCode struct {
	ID               string        `json:"id" db:"id"`
	ContentType      ContentType   `json:"content_type" db:"content_type"`
	OriginalContent  string        `json:"original_content,omitempty" db:"original_content"`
	SourceFileRef    string        `json:"source_file_ref,omitempty" db:"source_file_ref"`
	SourceFileName   string        `json:"source_file_name,omitempty" db:"source_file_name"`
	SourceFileSize   int64         `json:"source_file_size,omitempty" db:"source_file_size"`
	ArtifactRef      string        `json:"artifact_ref" db:"artifact_ref"`
	Options          RenderOptions `json:"options"`
	Origin           RequestOrigin `json:"origin"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	DownloadCount    int64         `json:"download_count" db:"download_count"`
	LastDownloadedAt *time.Time    `json:"last_downloaded_at,omitempty" db:"last_downloaded_at"`
}

const previewLength = 50

// ContentPreview returns a short human readable description of the encoded content
func (q *QRCode) ContentPreview() string {
	if q.ContentType.IsFile() {
		return fmt.Sprintf("File: %s", q.SourceFileName)
	}
	if utf8.RuneCountInString(q.OriginalContent) <= previewLength {
		return q.OriginalContent
	}
	runes := []rune(q.OriginalContent)
	return string(runes[:previewLength]) + "..."
}

// QRCodeResponse is the public representation of a QR code record
type QRCodeResponse struct {
	ID               string      `json:"id"`
	ContentType      ContentType `json:"content_type"`
	ContentPreview   string      `json:"content_preview"`
	FileSize         *int64      `json:"file_size"`
	Size             int         `json:"size"`
	FillColor        string      `json:"fill_color"`
	BackColor        string      `json:"back_color"`
	CreatedAt        time.Time   `json:"created_at"`
	DownloadCount    int64       `json:"download_count"`
	LastDownloadedAt *time.Time  `json:"last_downloaded_at"`
	QRImageURL       string      `json:"qr_image_url"`
}

// GenerateResponse is returned by every generation endpoint
type GenerateResponse struct {
	Success     bool   `json:"success"`
	QRID        string `json:"qr_id"`
	QRCode      string `json:"qr_code"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
	CreatedAt   string `json:"created_at"`
}

// Stats holds aggregate usage statistics
type Stats struct {
	Total          int64
	TotalDownloads int64
	ByType         map[ContentType]int64
	TodayCount     int64
	MostDownloaded *QRCode
	RecentActivity []QRCode
}

// StatsResponse is the public representation of Stats
type StatsResponse struct {
	Total          int64                 `json:"total_qrs"`
	TotalDownloads int64                 `json:"total_downloads"`
	ByType         map[ContentType]int64 `json:"by_type"`
	TodayCount     int64                 `json:"today_count"`
	MostDownloaded *QRCodeResponse       `json:"most_downloaded"`
	RecentActivity []QRCodeResponse      `json:"recent_activity"`
}

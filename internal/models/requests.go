package models

import "io"

// FileUpload is an uploaded source file as received by the boundary layer
type FileUpload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// GenerateRequest describes one generation.
//
// Content is used for text and url requests, File for pdf and image requests.
// Colors are ignored for file requests, which always render black on white.
type GenerateRequest struct {
	ContentType ContentType
	Content     string
	File        *FileUpload
	ModuleSize  int
	Foreground  string
	Background  string
	Origin      RequestOrigin
}

// Download is a rendered artifact together with its updated record
type Download struct {
	Record *QRCode
	Data   []byte
}

// TextRequest is the body of POST /api/qr/text
type TextRequest struct {
	Text      string `json:"text" validate:"required"`
	Size      *int   `json:"size,omitempty"`
	FillColor string `json:"fill_color,omitempty"`
	BackColor string `json:"back_color,omitempty"`
}

// URLRequest is the body of POST /api/qr/url
type URLRequest struct {
	URL       string `json:"url" validate:"required"`
	Size      *int   `json:"size,omitempty"`
	FillColor string `json:"fill_color,omitempty"`
	BackColor string `json:"back_color,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

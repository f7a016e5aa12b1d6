package models

import "time"

// MediaAsset is a stored audio or video upload.
type MediaAsset struct {
	ID           string    `json:"id"`
	MediaKind    FileKind  `json:"kind"`
	UploadedBy   string    `json:"uploaded_by"`
	Filepath     string    `json:"filepath"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}

func (m *MediaAsset) FileID() string         { return m.ID }
func (m *MediaAsset) OwnerID() string        { return m.UploadedBy }
func (m *MediaAsset) CiphertextPath() string { return m.Filepath }
func (m *MediaAsset) Kind() FileKind         { return m.MediaKind }
func (m *MediaAsset) Name() string           { return m.OriginalName }

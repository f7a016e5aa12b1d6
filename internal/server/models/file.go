// Package models defines server-side data models persisted in the metadata
// store. The encrypted payloads themselves live in the blob store.
package models

import (
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/filex"
)

// FileKind classifies an upload by its extension.
type FileKind string

const (
	KindSentiment   FileKind = "sentiment"
	KindAudio       FileKind = "audio"
	KindVideo       FileKind = "video"
	KindUnsupported FileKind = "unsupported"
)

var kindsByExt = map[string]FileKind{
	".csv":  KindSentiment,
	".xls":  KindSentiment,
	".xlsx": KindSentiment,

	".mp3":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".m4a":  KindAudio,
	".aac":  KindAudio,
	".flac": KindAudio,

	".mp4":  KindVideo,
	".mov":  KindVideo,
	".avi":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
}

// ClassifyFile maps a filename to its kind, case-insensitively.
func ClassifyFile(name string) FileKind {
	if k, ok := kindsByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return k
	}
	return KindUnsupported
}

// IsMedia reports whether k is audio or video.
func (k FileKind) IsMedia() bool {
	return k == KindAudio || k == KindVideo
}

// StoredFile is the capability shared by every persisted variant
// (*SentimentRecord, *MediaAsset). Retrieval and deletion only need this.
type StoredFile interface {
	FileID() string
	OwnerID() string
	// CiphertextPath is the storage key of the IV-prefixed blob.
	CiphertextPath() string
	Kind() FileKind
	// Name is the client-side filename of the original upload.
	Name() string
}

// UploadedFile is an upload already saved to local disk by the transport.
// Location is where Path was allocated; the ciphertext is written next to
// it. A zero Location makes ingestion allocate one for Owner.
type UploadedFile struct {
	OriginalName string
	Path         string
	SizeBytes    int64
	Owner        string
	Location     filex.Location
}

// OutcomeStatus is the terminal state of one uploaded file.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"
)

// Outcome reports what happened to one uploaded file.
type Outcome struct {
	OriginalName  string        `json:"original_name"`
	Type          FileKind      `json:"type"`
	Status        OutcomeStatus `json:"status"`
	Message       string        `json:"message,omitempty"`
	RecordsSaved  int           `json:"records_saved,omitempty"`
	EncryptedFile string        `json:"encrypted_file,omitempty"`
	RecordID      string        `json:"record_id,omitempty"`
}

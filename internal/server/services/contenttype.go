package services

import (
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".csv":  "text/csv",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentType picks the response type for a stored file by the extension of
// its original name, falling back to a generic type for its kind.
func ContentType(kind models.FileKind, name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	switch kind {
	case models.KindAudio:
		return "audio/mpeg"
	case models.KindVideo:
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

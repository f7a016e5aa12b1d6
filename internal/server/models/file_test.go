package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFile(t *testing.T) {
	tests := map[string]FileKind{
		"news.csv":        KindSentiment,
		"NEWS.XLSX":       KindSentiment,
		"legacy.xls":      KindSentiment,
		"song.mp3":        KindAudio,
		"memo.Wav":        KindAudio,
		"clip.mp4":        KindVideo,
		"movie.webm":      KindVideo,
		"notes.txt":       KindUnsupported,
		"noext":           KindUnsupported,
		"archive.csv.zip": KindUnsupported,
	}
	for name, want := range tests {
		assert.Equal(t, want, ClassifyFile(name), name)
	}
}

func TestFileKind_IsMedia(t *testing.T) {
	assert.True(t, KindAudio.IsMedia())
	assert.True(t, KindVideo.IsMedia())
	assert.False(t, KindSentiment.IsMedia())
	assert.False(t, KindUnsupported.IsMedia())
}

func TestStoredFile_Variants(t *testing.T) {
	files := []StoredFile{
		&SentimentRecord{ID: "s1", UploadedBy: "alice", SourceFile: "20250101/alice/a.csv.enc", OriginalName: "a.csv"},
		&MediaAsset{ID: "m1", MediaKind: KindVideo, UploadedBy: "bob", Filepath: "20250101/bob/x.mp4", OriginalName: "x.mp4"},
	}

	assert.Equal(t, KindSentiment, files[0].Kind())
	assert.Equal(t, "20250101/alice/a.csv.enc", files[0].CiphertextPath())
	assert.Equal(t, "alice", files[0].OwnerID())
	assert.Equal(t, "a.csv", files[0].Name())

	assert.Equal(t, KindVideo, files[1].Kind())
	assert.Equal(t, "m1", files[1].FileID())
	assert.Equal(t, "bob", files[1].OwnerID())
	assert.Equal(t, "x.mp4", files[1].Name())
}

func TestSentimentPatch_Empty(t *testing.T) {
	assert.True(t, SentimentPatch{}.Empty())
	title := "x"
	assert.False(t, SentimentPatch{Title: &title}.Empty())
}

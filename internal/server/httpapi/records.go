package httpapi

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) listSentiment(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}

	filter := models.SentimentFilter{
		UploadedBy: c.Query("uploaded_by"),
		Ticker:     c.Query("ticker"),
		Label:      c.Query("label"),
		Limit:      limit,
		Offset:     offset,
	}
	recs, err := s.records.ListSentiment(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, "list sentiment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

func (s *Server) getSentiment(c *gin.Context) {
	rec, err := s.records.GetSentiment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "get sentiment", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) updateSentiment(c *gin.Context) {
	var patch models.SentimentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	rec, err := s.records.UpdateSentiment(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, "update sentiment", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteSentiment(c *gin.Context) {
	if err := s.records.DeleteSentiment(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, "delete sentiment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) streamSource(c *gin.Context) {
	stream, err := s.retrieval.OpenSource(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "open source", err)
		return
	}
	s.sendStream(c, stream, -1)
}

func (s *Server) listMedia(c *gin.Context) {
	assets, err := s.records.ListMedia(c.Request.Context(), c.Query("owner"))
	if err != nil {
		s.writeError(c, "list media", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": assets})
}

func (s *Server) getMedia(c *gin.Context) {
	asset, err := s.records.GetMedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "get media", err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (s *Server) streamMedia(c *gin.Context) {
	stream, err := s.retrieval.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "open media", err)
		return
	}
	size := int64(-1)
	if asset, ok := stream.File.(*models.MediaAsset); ok && asset.SizeBytes >= 0 {
		size = asset.SizeBytes
	}
	s.sendStream(c, stream, size)
}

func (s *Server) deleteMedia(c *gin.Context) {
	if err := s.records.DeleteMedia(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, "delete media", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// sendStream writes decrypted content. Once the first byte is out the status
// is fixed, so decryption faults past that point only reach the log.
func (s *Server) sendStream(c *gin.Context, stream *services.Stream, size int64) {
	defer stream.Close()

	disposition := mime.FormatMediaType("inline", map[string]string{"filename": stream.Name})
	c.Status(http.StatusOK)
	c.Header("Content-Type", stream.ContentType)
	c.Header("Content-Disposition", disposition)
	if size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}

	n, err := io.Copy(c.Writer, stream)
	if err != nil {
		s.logger.Error(c.Request.Context(), "stream interrupted",
			"id", stream.File.FileID(), "sent", n, "error", err)
	}
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.ErrValidation
	}
	return n, nil
}

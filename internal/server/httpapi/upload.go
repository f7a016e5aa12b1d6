package httpapi

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleUpload saves every multipart file under the owner's allocated
// directory and hands the batch to ingestion. The response lists one
// outcome per file, in request order.
//
// The status is 200 when at least one file was stored, 500 when nothing was
// stored and some file hit a server fault, and 400 otherwise.
func (s *Server) handleUpload(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": common.MsgNoFile})
		return
	}
	headers := append(form.File["files"], form.File["file"]...)
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": common.MsgNoFile})
		return
	}

	owner := strings.TrimSpace(c.PostForm("username"))
	loc, err := s.ingest.Allocate(owner)
	if err != nil {
		s.writeError(c, "allocate", err)
		return
	}

	results := make([]models.Outcome, len(headers))
	var (
		batch []models.UploadedFile
		slots []int
	)
	for i, fh := range headers {
		name := clientFilename(fh)
		dst := loc.Path(uuid.NewString() + "-" + name)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			_ = os.Remove(dst)
			s.logger.Error(ctx, "could not save upload", "file", name, "error", err)
			results[i] = models.Outcome{
				OriginalName: name,
				Type:         models.ClassifyFile(name),
				Status:       models.StatusError,
				Message:      common.MsgServerError,
			}
			continue
		}
		batch = append(batch, models.UploadedFile{
			OriginalName: name, Path: dst, SizeBytes: fh.Size, Owner: owner, Location: loc,
		})
		slots = append(slots, i)
	}

	for j, out := range s.ingest.Ingest(ctx, batch) {
		results[slots[j]] = out
	}

	c.JSON(uploadStatus(results), gin.H{"results": results})
}

func clientFilename(fh *multipart.FileHeader) string {
	name := filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func uploadStatus(results []models.Outcome) int {
	code := http.StatusBadRequest
	for _, r := range results {
		if r.Status == models.StatusSuccess {
			return http.StatusOK
		}
		if r.Message == common.MsgServerError {
			code = http.StatusInternalServerError
		}
	}
	return code
}

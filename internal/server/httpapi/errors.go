package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/gin-gonic/gin"
)

func httpStatus(err error) (int, string) {
	var rej *common.Rejection
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.As(err, &rej):
		return http.StatusBadRequest, rej.Msg
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrParse):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrBlobMissing):
		return http.StatusGone, "stored file is missing"
	case errors.Is(err, common.ErrMalformedCiphertext):
		return http.StatusInternalServerError, "stored file is corrupt"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) writeError(c *gin.Context, op string, err error) {
	code, msg := httpStatus(err)
	if code >= http.StatusInternalServerError || code == http.StatusGone {
		s.logger.Error(c.Request.Context(), op+" failed", "error", err)
	}
	c.JSON(code, gin.H{"error": msg})
}

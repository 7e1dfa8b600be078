package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/pkg/errcode"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case appErr.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case appErr.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case appErr.IsIngestion(err):
		response.Error(c, errcode.ErrIngestionFailed, "document content unparseable")
	case appErr.IsEmbedding(err):
		response.Error(c, errcode.ErrEmbeddingUnavailable, "embedding provider unavailable")
	case appErr.Is(err, appErr.ErrIndexLoad), appErr.Is(err, appErr.ErrConfiguration):
		response.Error(c, errcode.ErrIndexStorage, "index storage error")
	case appErr.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

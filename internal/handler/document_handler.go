package handler

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/model"
	"github.com/senseops/diagd/internal/pkg/errcode"
	"github.com/senseops/diagd/internal/pkg/response"
	"github.com/senseops/diagd/internal/service"
)

type DocumentHandler struct {
	ingest    *service.IngestService
	retrieval *service.RetrievalService
}

func NewDocumentHandler(ingest *service.IngestService, retrieval *service.RetrievalService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, retrieval: retrieval}
}

type uploadFileResult struct {
	Filename    string `json:"filename"`
	DocumentID  string `json:"document_id"`
	Skipped     bool   `json:"skipped"`
	TotalChunks int    `json:"total_chunks"`
	Error       string `json:"error,omitempty"`
}

type uploadResponse struct {
	DocumentsIndexed int                `json:"documents_indexed"`
	TotalChunks      int                `json:"total_chunks"`
	Files            []uploadFileResult `json:"files"`
}

// Upload ingests one or more files from a multipart form. A failing file
// is reported in its result entry and does not abort the rest of the
// batch.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "at least one file is required")
		return
	}

	resp := uploadResponse{Files: make([]uploadFileResult, 0, len(files))}
	for _, file := range files {
		entry := uploadFileResult{Filename: file.Filename, DocumentID: service.DocumentID(file.Filename)}
		result, err := h.ingestOne(c, file)
		if err != nil {
			logutil.GetLogger(c.Request.Context()).Warn("file ingest failed",
				zap.String("filename", file.Filename),
				zap.Error(err),
			)
			entry.Error = err.Error()
		} else {
			entry.Skipped = result.Skipped
			entry.TotalChunks = result.TotalChunks
			resp.DocumentsIndexed += result.DocumentsIndexed
			resp.TotalChunks += result.TotalChunks
		}
		resp.Files = append(resp.Files, entry)
	}
	response.Success(c, resp)
}

func (h *DocumentHandler) ingestOne(c *gin.Context, file *multipart.FileHeader) (*model.IngestResult, error) {
	opened, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer opened.Close()
	content, err := io.ReadAll(opened)
	if err != nil {
		return nil, err
	}
	return h.ingest.IngestFile(c.Request.Context(), file.Filename, content)
}

// List returns the ids of all indexed documents.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.retrieval.ListDocuments(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/senseops/diagd/internal/pkg/errcode"
	"github.com/senseops/diagd/internal/pkg/response"
	"github.com/senseops/diagd/internal/service"
)

type QuestionHandler struct {
	answers *service.AnswerService
}

func NewQuestionHandler(answers *service.AnswerService) *QuestionHandler {
	return &QuestionHandler{answers: answers}
}

type questionRequest struct {
	Question    string   `json:"question"`
	LLMProvider string   `json:"llm_provider"`
	Model       string   `json:"model"`
	DocumentIDs []string `json:"document_ids"`
}

// Ask answers a question over the indexed documentation. document_ids
// scopes retrieval; a request that omits it matches nothing.
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.answers.Answer(c.Request.Context(), req.Question, req.LLMProvider, req.Model, req.DocumentIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

// Models lists the chat models available for questions and diagnostics.
func (h *QuestionHandler) Models(c *gin.Context) {
	response.Success(c, gin.H{"models": h.answers.Models()})
}

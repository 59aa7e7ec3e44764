package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-rag/database"
	"compliance-rag/service"
	"compliance-rag/types"
)

type SearchHandler struct {
	vectorDB    database.VectorDatabase
	generator   service.AnswerGenerator
	defaultTopK int
}

func NewSearchHandler(vectorDB database.VectorDatabase, generator service.AnswerGenerator, defaultTopK int) *SearchHandler {
	return &SearchHandler{
		vectorDB:    vectorDB,
		generator:   generator,
		defaultTopK: defaultTopK,
	}
}

// HandleSearch returns ranked chunks for a query without invoking the LLM.
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}

	chunks, err := h.vectorDB.SearchSimilar(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   types.SearchResponse{Chunks: chunks},
	})
}

// HandleAsk retrieves context for a question and generates a cited answer.
func (h *SearchHandler) HandleAsk(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}

	chunks, err := h.vectorDB.SearchSimilar(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "Search failed: " + err.Error(),
		})
		return
	}

	answer, err := h.generator.Generate(c.Request.Context(), req.Question, chunks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  "error",
			Message: "Generation failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   types.AskResponse{Answer: answer, Chunks: chunks},
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/aideas-api/internal/generation"
	"github.com/Conceptual-Machines/aideas-api/internal/llm"
	"github.com/Conceptual-Machines/aideas-api/internal/theory"
)

type GenerationHandler struct {
	orchestrator *generation.Orchestrator
}

func NewGenerationHandler(orchestrator *generation.Orchestrator) *GenerationHandler {
	return &GenerationHandler{orchestrator: orchestrator}
}

// Generate handles POST /api/v1/generations: it resolves the request to
// generated content, producing it through the provider pipeline unless an
// identical request was served before.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req generation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, cached, err := h.orchestrator.Generate(c.Request.Context(), req)
	if err != nil {
		h.writeGenerationError(c, err)
		return
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"content": content.Record.Response(),
		"cached":  cached,
	})
}

// writeGenerationError maps pipeline failures onto HTTP statuses: bad input
// is the caller's fault, retry exhaustion is a 422 with the violations that
// caused it, provider trouble is a 502/504.
func (h *GenerationHandler) writeGenerationError(c *gin.Context, err error) {
	var failed *generation.GenerationFailedError
	if errors.As(err, &failed) && len(failed.Violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "Generated content failed music theory validation",
			"attempts":   failed.Attempts,
			"violations": violationPayload(failed.Violations),
		})
		return
	}

	// Exhaustion without violations unwraps to the last provider error, so
	// the sentinel checks below see through it.
	if errors.Is(err, llm.ErrProviderTimeout) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Generation provider timed out"})
		return
	}
	if errors.Is(err, llm.ErrProvider) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation provider unavailable"})
		return
	}
	if llm.IsMalformedOutput(err) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation provider returned unusable output"})
		return
	}
	if failed != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "Generation did not produce acceptable content",
			"attempts": failed.Attempts,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func violationPayload(violations []theory.Violation) []gin.H {
	out := make([]gin.H, 0, len(violations))
	for _, v := range violations {
		out = append(out, gin.H{
			"rule":     v.RuleID,
			"measure":  v.Location.Measure,
			"beat":     v.Location.Beat.String(),
			"severity": v.Severity.String(),
			"message":  v.Message,
		})
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"strings"

	"compliance-rag/types"
)

// AnswerGenerator produces a grounded answer for a question given retrieved
// context chunks. Implementations exist per provider and are selected by
// configuration at startup.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []types.RetrievedChunk) (string, error)
	Model() string
}

const complianceSystemPrompt = `You are a compliance expert assistant. Answer questions about compliance requirements based ONLY on the provided context.

CRITICAL RULES:
1. Use ONLY information from the provided documents
2. Include specific citations (document name, section number)
3. If information is not in the context, say so clearly
4. Be precise and cite specific controls or requirements`

// buildUserPrompt renders the retrieved chunks and the question into the
// citation-aware prompt shared by all generator implementations.
func buildUserPrompt(question string, chunks []types.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Context documents:\n")
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "\n  Source: %s\n  Content: %s\n", chunk.Metadata.FilePath, chunk.Content)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n\nProvide a detailed answer with specific citations.", question)
	return b.String()
}

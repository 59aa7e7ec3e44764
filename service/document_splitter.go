package service

import (
	"fmt"
	"strings"

	"compliance-rag/types"
)

// DocumentSplitter cuts processed text into overlapping chunks sized for
// embedding, preferring sentence boundaries.
type DocumentSplitter struct {
	maxChunkSize int
	overlapSize  int
}

const defaultMaxChunkSize = 2000

// NewDocumentSplitter sanitizes the chunking config: a non-positive chunk
// size or an overlap at least as large as the chunk size cannot make
// progress through a document.
func NewDocumentSplitter(config types.DocumentServiceConfig) *DocumentSplitter {
	maxChunkSize := config.MaxChunkSize
	if maxChunkSize <= 0 {
		maxChunkSize = defaultMaxChunkSize
	}
	overlapSize := config.OverlapSize
	if overlapSize < 0 || overlapSize >= maxChunkSize {
		overlapSize = 0
	}
	return &DocumentSplitter{
		maxChunkSize: maxChunkSize,
		overlapSize:  overlapSize,
	}
}

// Split chunks a processed document. Each chunk carries the character offset
// of its content within the document so retrieval results can be traced back
// to their position in the source.
func (s *DocumentSplitter) Split(filePath, text string) []types.DocumentChunk {
	sourceID := GetFileNameWithoutExt(filePath)
	textLen := len(text)
	if textLen == 0 {
		return nil
	}

	var chunks []types.DocumentChunk
	appendChunk := func(start, end int) {
		raw := text[start:end]
		leftTrimmed := strings.TrimLeft(raw, " \t\n")
		content := strings.TrimRight(leftTrimmed, " \t\n")
		if content == "" {
			return
		}
		offset := start + len(raw) - len(leftTrimmed)
		chunks = append(chunks, types.DocumentChunk{
			Content:       content,
			FilePath:      filePath,
			SourceID:      sourceID,
			SplitID:       fmt.Sprintf("%s_%d", sourceID, len(chunks)),
			SplitIdxStart: offset,
		})
	}

	if textLen <= s.maxChunkSize {
		appendChunk(0, textLen)
		return chunks
	}

	currentPos := 0
	for currentPos < textLen {
		chunkEnd := currentPos + s.maxChunkSize
		if chunkEnd >= textLen {
			appendChunk(currentPos, textLen)
			break
		}

		// Prefer a sentence end, fall back to a word boundary
		sentenceEnd := chunkEnd
		found := false
		for i := chunkEnd - 1; i > currentPos; i-- {
			if text[i] == '.' || text[i] == '?' || text[i] == '!' {
				sentenceEnd = i + 1
				found = true
				break
			}
		}
		if !found {
			for i := chunkEnd - 1; i > currentPos; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					sentenceEnd = i
					break
				}
			}
		}

		appendChunk(currentPos, sentenceEnd)

		next := sentenceEnd - s.overlapSize
		if next <= currentPos {
			next = sentenceEnd
		}
		currentPos = next
	}

	return chunks
}

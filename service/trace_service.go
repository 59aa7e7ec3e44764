package service

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"compliance-rag/types"
)

// TraceService assembles replayable records of query sessions for offline
// evaluation. Sessions are driven by a single caller; queries are recorded
// strictly sequentially.
type TraceService struct {
	outputDir string

	mu        sync.Mutex
	lastStamp string
	stampSeq  int
}

// Session is the handle for one in-progress trace. It is created by
// StartSession, appended to by RecordQuery, and written once by Finalize.
type Session struct {
	trace   *types.SessionTrace
	started time.Time
}

// Trace returns the accumulated session trace, e.g. for archival.
func (s *Session) Trace() *types.SessionTrace {
	return s.trace
}

func NewTraceService(outputDir string) *TraceService {
	return &TraceService{
		outputDir: outputDir,
	}
}

// StartSession captures a start timestamp and allocates a session id derived
// from it. Ids are second-granularity; a second session started within the
// same second gets a numeric suffix so two sessions never share a file.
func (t *TraceService) StartSession(cfg types.SessionConfig) *Session {
	started := time.Now()
	sessionID := t.allocateSessionID(started)

	var llmModel *string
	if cfg.Mode == types.ModeFullRAG && cfg.LLMModel != "" {
		model := cfg.LLMModel
		llmModel = &model
	}

	return &Session{
		started: started,
		trace: &types.SessionTrace{
			SessionMetadata: types.SessionMetadata{
				SessionID:      sessionID,
				StartedAt:      started.Format(time.RFC3339),
				Mode:           cfg.Mode,
				Collection:     cfg.Collection,
				EmbeddingModel: cfg.EmbeddingModel,
				LLMModel:       llmModel,
				TopK:           cfg.TopK,
			},
			Queries: []types.QueryTrace{},
		},
	}
}

func (t *TraceService) allocateSessionID(started time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	stamp := started.Format("20060102_150405")
	if stamp == t.lastStamp {
		t.stampSeq++
		return fmt.Sprintf("%s_%d", stamp, t.stampSeq+1)
	}
	t.lastStamp = stamp
	t.stampSeq = 0
	return stamp
}

// RecordQuery appends a new query trace with a strictly increasing 1-based
// query id. Chunks are recorded in the exact order given; rank is assigned
// from position. Previously recorded queries are never touched.
func (t *TraceService) RecordQuery(sess *Session, question string, chunks []types.RetrievedChunk, answer *string, duration float64) *types.QueryTrace {
	contexts := make([]types.RetrievedChunk, len(chunks))
	for i, chunk := range chunks {
		chunk.Rank = i + 1
		contexts[i] = chunk
	}

	query := types.QueryTrace{
		QueryID:              len(sess.trace.Queries) + 1,
		Timestamp:            time.Now().Format(time.RFC3339),
		Question:             question,
		RetrievedContexts:    contexts,
		GeneratedAnswer:      answer,
		NumContextsRetrieved: len(contexts),
		QueryTimeSeconds:     round2(duration),
	}

	sess.trace.Queries = append(sess.trace.Queries, query)
	return &sess.trace.Queries[len(sess.trace.Queries)-1]
}

// RecordFailedQuery records a query whose retrieval or generation failed.
// The error is captured inline and the session continues.
func (t *TraceService) RecordFailedQuery(sess *Session, question string, queryErr error, duration float64) *types.QueryTrace {
	query := types.QueryTrace{
		QueryID:           len(sess.trace.Queries) + 1,
		Timestamp:         time.Now().Format(time.RFC3339),
		Question:          question,
		RetrievedContexts: []types.RetrievedChunk{},
		QueryTimeSeconds:  round2(duration),
		Error:             queryErr.Error(),
	}

	sess.trace.Queries = append(sess.trace.Queries, query)
	return &sess.trace.Queries[len(sess.trace.Queries)-1]
}

// Finalize computes the session totals and writes the trace as a single JSON
// file named after the session id. Sessions with zero recorded queries are
// not persisted.
func (t *TraceService) Finalize(sess *Session) (string, error) {
	if len(sess.trace.Queries) == 0 {
		log.Printf("Session %s recorded no queries, skipping trace persistence", sess.trace.SessionMetadata.SessionID)
		return "", nil
	}

	ended := time.Now()
	sess.trace.SessionMetadata.EndedAt = ended.Format(time.RFC3339)
	sess.trace.SessionMetadata.TotalQueries = len(sess.trace.Queries)
	sess.trace.SessionMetadata.SessionDurationSeconds = round2(ended.Sub(sess.started).Seconds())

	if err := os.MkdirAll(t.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create trace directory: %w", err)
	}

	data, err := json.MarshalIndent(sess.trace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session trace: %w", err)
	}

	path := filepath.Join(t.outputDir, fmt.Sprintf("session_%s.json", sess.trace.SessionMetadata.SessionID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write session trace: %w", err)
	}

	log.Printf("Session trace saved to %s (%d queries)", path, len(sess.trace.Queries))
	return path, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

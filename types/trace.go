package types

const (
	ModeRetrieveOnly = "retrieve_only"
	ModeFullRAG      = "full_rag"
)

// SessionConfig is the configuration snapshot captured when a session starts.
type SessionConfig struct {
	Collection     string
	EmbeddingModel string
	LLMModel       string // empty in retrieve-only mode
	TopK           int
	Mode           string
}

// SessionMetadata is the session-level header of a persisted trace file.
type SessionMetadata struct {
	SessionID              string  `json:"session_id"`
	StartedAt              string  `json:"started_at"`
	EndedAt                string  `json:"ended_at,omitempty"`
	Mode                   string  `json:"mode"`
	Collection             string  `json:"collection"`
	EmbeddingModel         string  `json:"embedding_model"`
	LLMModel               *string `json:"llm_model"`
	TopK                   int     `json:"top_k"`
	TotalQueries           int     `json:"total_queries,omitempty"`
	SessionDurationSeconds float64 `json:"session_duration_seconds,omitempty"`
}

// ChunkMetadata is the subset of chunk metadata preserved inside a trace.
type ChunkMetadata struct {
	FilePath      string `json:"file_path"`
	SourceID      string `json:"source_id"`
	SplitID       string `json:"split_id"`
	SplitIdxStart int    `json:"split_idx_start"`
	Page          int    `json:"page,omitempty"`
}

// RetrievedChunk is one ranked retrieval result. Rank is 1-based and equals
// the chunk's position in the result list.
type RetrievedChunk struct {
	Rank     int           `json:"rank"`
	Score    float64       `json:"score"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// QueryTrace records one query of a session. Immutable once appended.
type QueryTrace struct {
	QueryID              int              `json:"query_id"`
	Timestamp            string           `json:"timestamp"`
	Question             string           `json:"question"`
	RetrievedContexts    []RetrievedChunk `json:"retrieved_contexts"`
	GeneratedAnswer      *string          `json:"generated_answer"`
	NumContextsRetrieved int              `json:"num_contexts_retrieved"`
	QueryTimeSeconds     float64          `json:"query_time_seconds"`
	Error                string           `json:"error,omitempty"`
}

// SessionTrace is the full record of one evaluation session, serialized once
// to a JSON file at finalization and never re-opened for append.
type SessionTrace struct {
	SessionMetadata SessionMetadata `json:"session_metadata"`
	Queries         []QueryTrace    `json:"queries"`
}

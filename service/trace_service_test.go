package service

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-rag/types"
)

func retrieveOnlyConfig() types.SessionConfig {
	return types.SessionConfig{
		Collection:     "compliance_rag_v1",
		EmbeddingModel: "BAAI/bge-large-en-v1.5",
		TopK:           5,
		Mode:           types.ModeRetrieveOnly,
	}
}

func sampleChunks(n int) []types.RetrievedChunk {
	chunks := make([]types.RetrievedChunk, n)
	for i := range chunks {
		chunks[i] = types.RetrievedChunk{
			Score:   0.9 - float64(i)*0.1,
			Content: "chunk content",
			Metadata: types.ChunkMetadata{
				FilePath:      "data/processed/nist.txt",
				SourceID:      "nist",
				SplitID:       "nist_0",
				SplitIdxStart: 100 * i,
			},
		}
	}
	return chunks
}

func TestTraceService_RetrieveOnlySessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc := NewTraceService(dir)

	session := svc.StartSession(retrieveOnlyConfig())
	svc.RecordQuery(session, "What are the password requirements?", sampleChunks(3), nil, 1.234)

	path, err := svc.Finalize(session)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, filepath.Join(dir, "session_"+session.Trace().SessionMetadata.SessionID+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	meta := decoded["session_metadata"].(map[string]interface{})
	assert.Equal(t, "retrieve_only", meta["mode"])
	assert.Equal(t, "compliance_rag_v1", meta["collection"])
	assert.Equal(t, "BAAI/bge-large-en-v1.5", meta["embedding_model"])
	assert.Nil(t, meta["llm_model"])
	assert.Equal(t, float64(5), meta["top_k"])
	assert.Equal(t, float64(1), meta["total_queries"])

	queries := decoded["queries"].([]interface{})
	require.Len(t, queries, 1)
	q := queries[0].(map[string]interface{})
	assert.Equal(t, float64(1), q["query_id"])
	assert.Equal(t, float64(3), q["num_contexts_retrieved"])
	assert.Nil(t, q["generated_answer"])
	assert.Equal(t, 1.23, q["query_time_seconds"])
}

func TestTraceService_FullRAGRecordsAnswerAndModel(t *testing.T) {
	svc := NewTraceService(t.TempDir())

	cfg := retrieveOnlyConfig()
	cfg.Mode = types.ModeFullRAG
	cfg.LLMModel = "gemini-2.5-flash"
	session := svc.StartSession(cfg)

	answer := "Passwords must be at least 12 characters (CJIS 5.6.2.1)."
	query := svc.RecordQuery(session, "What are the password requirements?", sampleChunks(2), &answer, 3.5)

	require.NotNil(t, query.GeneratedAnswer)
	assert.Equal(t, answer, *query.GeneratedAnswer)
	require.NotNil(t, session.Trace().SessionMetadata.LLMModel)
	assert.Equal(t, "gemini-2.5-flash", *session.Trace().SessionMetadata.LLMModel)
}

func TestTraceService_QueryIDsStrictlyIncreasing(t *testing.T) {
	svc := NewTraceService(t.TempDir())
	session := svc.StartSession(retrieveOnlyConfig())

	svc.RecordQuery(session, "first", sampleChunks(1), nil, 0.1)
	svc.RecordFailedQuery(session, "second", errors.New("retrieval timeout"), 0.2)
	svc.RecordQuery(session, "third", sampleChunks(2), nil, 0.3)

	queries := session.Trace().Queries
	require.Len(t, queries, 3)
	for i, q := range queries {
		assert.Equal(t, i+1, q.QueryID)
	}
}

func TestTraceService_ChunkOrderPreserved(t *testing.T) {
	svc := NewTraceService(t.TempDir())
	session := svc.StartSession(retrieveOnlyConfig())

	// Deliberately unsorted scores: the recorder must keep the order it
	// was given and never re-sort.
	chunks := []types.RetrievedChunk{
		{Score: 0.2, Content: "low"},
		{Score: 0.9, Content: "high"},
		{Score: 0.5, Content: "mid"},
	}
	query := svc.RecordQuery(session, "order test", chunks, nil, 0.1)

	require.Len(t, query.RetrievedContexts, 3)
	for i, ctx := range query.RetrievedContexts {
		assert.Equal(t, i+1, ctx.Rank)
	}
	assert.Equal(t, "low", query.RetrievedContexts[0].Content)
	assert.Equal(t, "high", query.RetrievedContexts[1].Content)
	assert.Equal(t, "mid", query.RetrievedContexts[2].Content)
}

func TestTraceService_RecordIsAppendOnly(t *testing.T) {
	svc := NewTraceService(t.TempDir())
	session := svc.StartSession(retrieveOnlyConfig())

	first := svc.RecordQuery(session, "first", sampleChunks(1), nil, 0.1)
	firstID, firstQuestion := first.QueryID, first.Question

	for i := 0; i < 10; i++ {
		svc.RecordQuery(session, "later", sampleChunks(2), nil, 0.1)
	}

	assert.Equal(t, firstID, session.Trace().Queries[0].QueryID)
	assert.Equal(t, firstQuestion, session.Trace().Queries[0].Question)
	assert.Len(t, session.Trace().Queries[0].RetrievedContexts, 1)
}

func TestTraceService_FailedQueryKeepsSessionAlive(t *testing.T) {
	svc := NewTraceService(t.TempDir())
	session := svc.StartSession(retrieveOnlyConfig())

	failed := svc.RecordFailedQuery(session, "broken", errors.New("upstream 503"), 0.4)

	assert.Equal(t, "upstream 503", failed.Error)
	assert.Empty(t, failed.RetrievedContexts)
	assert.Nil(t, failed.GeneratedAnswer)
	assert.Zero(t, failed.NumContextsRetrieved)

	next := svc.RecordQuery(session, "works again", sampleChunks(1), nil, 0.1)
	assert.Equal(t, 2, next.QueryID)
}

func TestTraceService_ZeroQuerySessionSkipsPersistence(t *testing.T) {
	dir := t.TempDir()
	svc := NewTraceService(dir)
	session := svc.StartSession(retrieveOnlyConfig())

	path, err := svc.Finalize(session)

	require.NoError(t, err)
	assert.Empty(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no trace file for an empty session")
}

func TestTraceService_SameSecondSessionIDsAreUnique(t *testing.T) {
	svc := NewTraceService(t.TempDir())

	ids := make(map[string]bool)
	for i := 0; i < 5; i++ {
		session := svc.StartSession(retrieveOnlyConfig())
		id := session.Trace().SessionMetadata.SessionID
		assert.False(t, ids[id], "duplicate session id %s", id)
		ids[id] = true
	}
}

func TestTraceService_FinalizeFailsOnUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	svc := NewTraceService(filepath.Join(blocker, "traces"))
	session := svc.StartSession(retrieveOnlyConfig())
	svc.RecordQuery(session, "q", sampleChunks(1), nil, 0.1)

	_, err := svc.Finalize(session)
	assert.Error(t, err)
}

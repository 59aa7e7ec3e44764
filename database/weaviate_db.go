package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"compliance-rag/config"
	"compliance-rag/types"
)

const BATCH_SIZE = 200

// WeaviateStore stores and retrieves compliance chunks. Vectorization is
// delegated to the class's text2vec module, so no client-side embedding
// happens here.
type WeaviateStore struct {
	client      *weaviate.Client
	className   string
	classConfig *models.Class
}

func chunkClassObject(className, text2vec string, moduleConfig map[string]interface{}) *models.Class {
	return &models.Class{
		Class: className,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "filePath", DataType: []string{"text"}},
			{Name: "sourceId", DataType: []string{"text"}},
			{Name: "splitId", DataType: []string{"text"}},
			{Name: "splitIdxStart", DataType: []string{"int"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "createdAt", DataType: []string{"int"}},
		},
		Vectorizer:      text2vec,
		ModuleConfig:    moduleConfig,
		VectorIndexType: "hnsw",
	}
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")

	clientCfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
		clientCfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}

	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	store := &WeaviateStore{
		client:    client,
		className: cfg.ClassName,
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	hasClass := false
	for _, class := range schema.Classes {
		if class.Class == cfg.ClassName {
			hasClass = true
			break
		}
	}
	if !hasClass {
		classObj := chunkClassObject(cfg.ClassName, cfg.Text2Vec, cfg.ModuleConfig)
		if err := client.Schema().ClassCreator().WithClass(classObj).Do(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create class %s: %w", cfg.ClassName, err)
		}
		store.classConfig = classObj
		return store, nil
	}

	store.classConfig = chunkClassObject(cfg.ClassName, cfg.Text2Vec, cfg.ModuleConfig)
	return store, nil
}

// ReInit drops and recreates the chunk class, discarding all indexed chunks.
func (s *WeaviateStore) ReInit() error {
	if err := s.client.Schema().ClassDeleter().WithClassName(s.className).Do(context.Background()); err != nil {
		return fmt.Errorf("failed to delete class %s: %w", s.className, err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(s.classConfig).Do(context.Background()); err != nil {
		return fmt.Errorf("failed to create class %s: %w", s.className, err)
	}
	return nil
}

// BatchInsertChunks writes document chunks in batches of BATCH_SIZE.
func (s *WeaviateStore) BatchInsertChunks(ctx context.Context, title string, chunks []types.DocumentChunk) error {
	total := len(chunks)
	createdAt := time.Now().Unix()

	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class: s.className,
				Properties: map[string]interface{}{
					"content":       chunks[j].Content,
					"title":         title,
					"filePath":      chunks[j].FilePath,
					"sourceId":      chunks[j].SourceID,
					"splitId":       chunks[j].SplitID,
					"splitIdxStart": chunks[j].SplitIdxStart,
					"page":          chunks[j].Page,
					"createdAt":     createdAt,
				},
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
		log.Printf("Inserted batch %d-%d of %d chunks", i, end, total)
	}

	return nil
}

// SearchSimilar runs a nearText query and returns ranked chunks. The score is
// 1 - distance, so higher means more relevant.
func (s *WeaviateStore) SearchSimilar(ctx context.Context, query string, limit int) ([]types.RetrievedChunk, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "filePath"},
		{Name: "sourceId"},
		{Name: "splitId"},
		{Name: "splitIdxStart"},
		{Name: "page"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	getBuilder := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearText(nearText)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var chunks []types.RetrievedChunk
	if data, ok := result.Data["Get"].(map[string]interface{})[s.className].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}

			chunk := types.RetrievedChunk{
				Rank:    len(chunks) + 1,
				Content: asString(obj["content"]),
				Metadata: types.ChunkMetadata{
					FilePath:      asString(obj["filePath"]),
					SourceID:      asString(obj["sourceId"]),
					SplitID:       asString(obj["splitId"]),
					SplitIdxStart: asInt(obj["splitIdxStart"]),
					Page:          asInt(obj["page"]),
				},
			}
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if distance, ok := additional["distance"].(float64); ok {
					chunk.Score = 1 - distance
				}
			}
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// Count returns the number of chunks currently indexed.
func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if result.Errors != nil {
		return 0, fmt.Errorf("aggregate failed: %v", result.Errors[0].Message)
	}

	data, ok := result.Data["Aggregate"].(map[string]interface{})[s.className].([]interface{})
	if !ok || len(data) == 0 {
		return 0, nil
	}
	obj, ok := data[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := obj["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	return asInt(meta["count"]), nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"compliance-rag/config"
	"compliance-rag/database"
	"compliance-rag/repository"
	"compliance-rag/service"
	"compliance-rag/types"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Interactive Q&A over the indexed corpus with trace capture",
	Long: `Starts an interactive loop that answers questions over the indexed
compliance corpus. Every query is recorded into a session trace file for
offline evaluation: the question, the ranked retrieved chunks with scores
and metadata, the generated answer, and timings.

In retrieve-only mode no LLM is invoked and only retrieval results are
shown and recorded. Type 'quit' or 'exit' to finish the session and write
the trace.`,
	Run: func(cmd *cobra.Command, args []string) {
		retrieveOnly, _ := cmd.Flags().GetBool("retrieve-only")
		topK, _ := cmd.Flags().GetInt("top-k")
		collection, _ := cmd.Flags().GetString("collection")
		model, _ := cmd.Flags().GetString("model")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		archive, _ := cmd.Flags().GetBool("archive")

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if collection != "" {
			cfg.WeaviateStoreConfig.ClassName = collection
		}
		if model != "" {
			cfg.LLM.Model = model
		}
		if topK <= 0 {
			topK = cfg.Retrieval.TopK
		}
		if outputDir == "" {
			outputDir = cfg.DataDirs.Traces
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		if count, err := weaviateDb.Count(context.Background()); err == nil {
			log.Printf("Connected to Weaviate (%d chunks indexed)", count)
		}

		var generator service.AnswerGenerator
		if !retrieveOnly {
			generator, err = newAnswerGenerator(cfg)
			if err != nil {
				log.Fatalf("Failed to create answer generator: %v", err)
			}
		}

		traceService := service.NewTraceService(outputDir)
		sessionCfg := types.SessionConfig{
			Collection:     cfg.WeaviateStoreConfig.ClassName,
			EmbeddingModel: cfg.WeaviateStoreConfig.Text2VecModel,
			TopK:           topK,
			Mode:           types.ModeRetrieveOnly,
		}
		if !retrieveOnly {
			sessionCfg.Mode = types.ModeFullRAG
			sessionCfg.LLMModel = generator.Model()
		}
		session := traceService.StartSession(sessionCfg)

		runInteractiveSession(session, traceService, weaviateDb, generator, topK)

		path, err := traceService.Finalize(session)
		if err != nil {
			log.Fatalf("Failed to persist session trace: %v", err)
		}

		if archive && path != "" {
			archiveSession(cfg, session)
		}
	},
}

func runInteractiveSession(session *service.Session, traceService *service.TraceService, vectorDB database.VectorDatabase, generator service.AnswerGenerator, topK int) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	fmt.Println("Compliance RAG - type 'quit' or 'exit' to finish the session")
	for {
		fmt.Print("\nYour question: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if q := strings.ToLower(question); q == "quit" || q == "exit" || q == "q" {
			break
		}

		start := time.Now()
		chunks, err := vectorDB.SearchSimilar(context.Background(), question, topK)
		if err != nil {
			// A failed query never aborts the session
			log.Printf("Retrieval failed: %v", err)
			traceService.RecordFailedQuery(session, question, err, time.Since(start).Seconds())
			continue
		}

		var answer *string
		if generator != nil {
			text, err := generator.Generate(context.Background(), question, chunks)
			if err != nil {
				log.Printf("Generation failed: %v", err)
				traceService.RecordFailedQuery(session, question, err, time.Since(start).Seconds())
				continue
			}
			answer = &text
		}

		duration := time.Since(start).Seconds()
		query := traceService.RecordQuery(session, question, chunks, answer, duration)

		fmt.Printf("\nRetrieved %d chunks in %.2fs\n", len(query.RetrievedContexts), duration)
		for _, ctx := range query.RetrievedContexts {
			fmt.Printf("  [%d] Score: %.3f | %s\n", ctx.Rank, ctx.Score, ctx.Metadata.FilePath)
			fmt.Printf("      Preview: %s\n", preview(ctx.Content, 150))
		}
		if answer != nil {
			fmt.Printf("\nAnswer (%d chars):\n%s\n", len(*answer), *answer)
		}
	}
}

// newAnswerGenerator selects the LLM provider from configuration.
func newAnswerGenerator(cfg *config.Config) (service.AnswerGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return service.NewOpenAIService(cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAIAPIKey, cfg.LLM.Model), nil
	case "gemini":
		return service.NewGeminiService(cfg.LLM.GeminiAPIKeys, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
}

func archiveSession(cfg *config.Config, session *service.Session) {
	if cfg.MongoURI == "" {
		log.Println("MONGODB_URI not set, skipping trace archival")
		return
	}
	client, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Printf("Failed to connect to MongoDB, trace not archived: %v", err)
		return
	}
	defer client.Disconnect(context.Background())

	traceRepo := repository.NewTraceRepo(client.Database("compliance_rag").Collection("traces"))
	if err := traceRepo.ArchiveSession(context.Background(), session.Trace()); err != nil {
		log.Printf("Failed to archive session trace: %v", err)
		return
	}
	log.Printf("Archived session %s to MongoDB", session.Trace().SessionMetadata.SessionID)
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("retrieve-only", false, "Retrieve-only mode (no LLM generation)")
	askCmd.Flags().Int("top-k", 0, "Number of chunks to retrieve (default from config)")
	askCmd.Flags().String("collection", "", "Weaviate collection name")
	askCmd.Flags().StringP("model", "m", "", "LLM model to use (full RAG mode only)")
	askCmd.Flags().StringP("output-dir", "o", "", "Directory to save session traces")
	askCmd.Flags().Bool("archive", false, "Also archive the session trace to MongoDB")
}

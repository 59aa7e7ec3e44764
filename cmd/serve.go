package cmd

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"compliance-rag/database"
	"compliance-rag/handler"
	"compliance-rag/service"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and Q&A over HTTP and WebSocket",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}

		generator, err := newAnswerGenerator(cfg)
		if err != nil {
			log.Fatalf("Failed to create answer generator: %v", err)
		}

		searchHandler := handler.NewSearchHandler(weaviateDb, generator, cfg.Retrieval.TopK)

		router := gin.Default()
		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/search", searchHandler.HandleSearch)
			apiV1.POST("/ask", searchHandler.HandleAsk)
		}

		// Streaming is OpenAI-only: the websocket endpoint is mounted only
		// when the configured provider supports it.
		if openaiService, ok := generator.(*service.OpenAIService); ok {
			wsHandler := handler.NewWebsocketHandler(weaviateDb, openaiService, cfg.Retrieval.TopK)
			router.GET("/ws/ask", wsHandler.HandleAsk)
		} else {
			log.Printf("Provider %q does not support streaming, /ws/ask disabled", cfg.LLM.Provider)
		}

		log.Printf("Starting server on port %s...", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

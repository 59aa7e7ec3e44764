package cmd

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"compliance-rag/database"
	"compliance-rag/service"
	"compliance-rag/types"
	"compliance-rag/utils"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk processed documents and index them into Weaviate",
	Run: func(cmd *cobra.Command, args []string) {
		reinit, _ := cmd.Flags().GetBool("reinit")

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		if reinit {
			if err := weaviateDb.ReInit(); err != nil {
				log.Fatalf("Failed to reinitialize Weaviate database: %v", err)
			}
			log.Println("Recreated chunk collection")
		}

		splitter := service.NewDocumentSplitter(types.DocumentServiceConfig{
			MaxChunkSize: cfg.Chunking.MaxChunkSize,
			OverlapSize:  cfg.Chunking.OverlapSize,
		})

		files, err := utils.ListFilesWithExt(cfg.DataDirs.Processed, ".txt")
		if err != nil {
			log.Fatalf("Failed to list processed files: %v", err)
		}
		if len(files) == 0 {
			log.Fatalf("No processed files found in %s, run preprocess first", cfg.DataDirs.Processed)
		}

		totalChunks := 0
		for _, file := range files {
			text, err := os.ReadFile(file)
			if err != nil {
				log.Printf("Failed to read %s: %v", file, err)
				continue
			}

			chunks := splitter.Split(file, string(text))
			if len(chunks) == 0 {
				log.Printf("Skipping %s: no content to index", file)
				continue
			}

			title := documentTitle(cfg.DataDirs.Processed, file)
			if err := weaviateDb.BatchInsertChunks(context.Background(), title, chunks); err != nil {
				log.Fatalf("Failed to index %s: %v", file, err)
			}
			log.Printf("Indexed %s: %d chunks", file, len(chunks))
			totalChunks += len(chunks)
		}

		count, err := weaviateDb.Count(context.Background())
		if err != nil {
			log.Printf("Indexed %d chunks from %d documents", totalChunks, len(files))
			return
		}
		log.Printf("Indexed %d chunks from %d documents (%d total in collection)", totalChunks, len(files), count)
	},
}

// documentTitle reads the processed metadata next to a text file; falls back
// to the filename when the metadata is missing.
func documentTitle(processedDir, textFile string) string {
	baseName := service.GetFileNameWithoutExt(textFile)
	var meta types.ProcessedMetadata
	if err := utils.ReadJSONFile(filepath.Join(processedDir, baseName+"_metadata.json"), &meta); err != nil || meta.Title == "" {
		return baseName
	}
	return meta.Title
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolP("reinit", "r", false, "Drop and recreate the chunk collection before indexing")
}

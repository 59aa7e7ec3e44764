package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"compliance-rag/service"
	"compliance-rag/types"
	"compliance-rag/utils"
)

// preprocessCmd represents the preprocess command
var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Clean and normalize extracted text",
	Long: `Runs the text normalizer over every extracted text file: strips page
artifacts, table-of-contents leaders, and excess whitespace while preserving
paragraph structure. Writes processed text plus preprocessing stats into the
processed data directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		preprocessService := service.NewPreprocessService()

		files, err := utils.ListFilesWithExt(cfg.DataDirs.Extracted, ".txt")
		if err != nil {
			log.Fatalf("Failed to list extracted files: %v", err)
		}
		if len(files) == 0 {
			log.Fatalf("No text files found in %s, run extract first", cfg.DataDirs.Extracted)
		}
		log.Printf("Found %d text files to process", len(files))

		totalOriginal, totalProcessed, failed := 0, 0, 0
		for _, file := range files {
			stats, err := preprocessOne(preprocessService, file, cfg.DataDirs.Extracted, cfg.DataDirs.Processed)
			if err != nil {
				log.Printf("Failed to process %s: %v", file, err)
				failed++
				continue
			}
			totalOriginal += stats.OriginalLength
			totalProcessed += stats.ProcessedLength
		}

		log.Printf("Preprocessing complete: %d succeeded, %d failed", len(files)-failed, failed)
		if totalOriginal > 0 {
			reduction := totalOriginal - totalProcessed
			log.Printf("Total reduction: %d chars (%.2f%%)", reduction,
				float64(reduction)/float64(totalOriginal)*100)
		}
	},
}

func preprocessOne(preprocessService *service.PreprocessService, textFile, inDir, outDir string) (types.PreprocessStats, error) {
	raw, err := os.ReadFile(textFile)
	if err != nil {
		return types.PreprocessStats{}, fmt.Errorf("failed to read text file: %w", err)
	}

	baseName := service.GetFileNameWithoutExt(textFile)
	doc := preprocessService.Process(baseName+".txt", string(raw))
	stats := doc.Stats
	log.Printf("%s: %d -> %d chars (%.2f%% reduction)", baseName,
		stats.OriginalLength, stats.ProcessedLength, stats.ReductionPercent)

	if err := utils.WriteTextFile(filepath.Join(outDir, doc.Filename), doc.Text); err != nil {
		return stats, fmt.Errorf("failed to write processed text: %w", err)
	}

	// Carry the extraction metadata forward when it exists
	var extractionMeta types.ExtractionMetadata
	metaPath := filepath.Join(inDir, baseName+"_metadata.json")
	if err := utils.ReadJSONFile(metaPath, &extractionMeta); err != nil {
		log.Printf("No extraction metadata for %s, using filename as title", baseName)
		extractionMeta.Title = baseName
	}

	meta := types.ProcessedMetadata{
		Title:             extractionMeta.Title,
		Type:              extractionMeta.Type,
		Source:            extractionMeta.Source,
		URL:               extractionMeta.URL,
		ExtractionDate:    extractionMeta.ExtractionDate,
		PreprocessingDate: time.Now().Format(time.RFC3339),
		PreprocessStats:   stats,
		ProcessedFile:     doc.Filename,
	}
	if err := utils.WriteJSONFile(filepath.Join(outDir, baseName+"_metadata.json"), meta); err != nil {
		return stats, fmt.Errorf("failed to write metadata: %w", err)
	}

	return stats, nil
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
}

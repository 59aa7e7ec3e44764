package cmd

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"compliance-rag/service"
	"compliance-rag/types"
	"compliance-rag/utils"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract raw text from compliance PDFs",
	Long: `Reads every PDF in the raw data directory, extracts its plain text,
and writes the text plus extraction metadata into the extracted data
directory. This is the first stage of the Extract -> Preprocess -> Store
pipeline.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		pdfService := service.NewPDFService(cfg.Documents)

		files, err := utils.ListFilesWithExt(cfg.DataDirs.Raw, ".pdf")
		if err != nil {
			log.Fatalf("Failed to list PDFs: %v", err)
		}
		if len(files) == 0 {
			log.Fatalf("No PDF files found in %s", cfg.DataDirs.Raw)
		}
		log.Printf("Found %d PDF files to extract", len(files))

		failed := 0
		for _, file := range files {
			if err := extractOne(pdfService, file, cfg.DataDirs.Extracted); err != nil {
				log.Printf("Failed to extract %s: %v", file, err)
				failed++
			}
		}
		log.Printf("Extraction complete: %d succeeded, %d failed", len(files)-failed, failed)
	},
}

func extractOne(pdfService *service.PDFService, filePath, outDir string) error {
	doc, err := pdfService.Extract(filePath)
	if err != nil {
		return err
	}

	baseName := service.GetFileNameWithoutExt(doc.Filename)
	textFile := filepath.Join(outDir, baseName+".txt")
	if err := utils.WriteTextFile(textFile, doc.Text); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}

	meta := types.ExtractionMetadata{
		Title:            doc.Metadata.Title,
		Type:             doc.Metadata.Type,
		Source:           doc.Metadata.Source,
		URL:              doc.Metadata.URL,
		ExtractionDate:   time.Now().Format(time.RFC3339),
		OriginalFilename: doc.Filename,
		TextLength:       len(doc.Text),
		OutputFile:       baseName + ".txt",
	}
	metaFile := filepath.Join(outDir, baseName+"_metadata.json")
	if err := utils.WriteJSONFile(metaFile, meta); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	log.Printf("Saved %s and %s", textFile, metaFile)
	return nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

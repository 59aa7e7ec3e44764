package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"compliance-rag/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compliance-rag",
	Short: "Compliance document RAG pipeline",
	Long: `Extracts text from compliance PDFs, normalizes it, indexes it into
Weaviate, and answers questions over the corpus with citation-aware prompts.

The pipeline runs in stages:

  compliance-rag extract      extract raw text from data/raw PDFs
  compliance-rag preprocess   clean extracted text for chunking
  compliance-rag index        chunk and index processed documents
  compliance-rag ask          interactive Q&A with session trace capture
  compliance-rag serve        HTTP/WebSocket API`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "config file")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgFile)
}

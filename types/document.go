package types

// RawDocument holds the text extracted from a single PDF before any cleanup.
type RawDocument struct {
	Filename string           `json:"filename"`
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata describes the source of a compliance document.
type DocumentMetadata struct {
	Title  string `json:"title"`
	Type   string `json:"type"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// ExtractionMetadata is persisted next to each extracted text file.
type ExtractionMetadata struct {
	Title            string `json:"title"`
	Type             string `json:"type"`
	Source           string `json:"source"`
	URL              string `json:"url"`
	ExtractionDate   string `json:"extraction_date"`
	OriginalFilename string `json:"original_filename"`
	TextLength       int    `json:"text_length"`
	OutputFile       string `json:"output_file"`
}

// ProcessedDocument is the result of running the normalizer over a RawDocument.
// Re-processing creates a new ProcessedDocument, it is never mutated in place.
type ProcessedDocument struct {
	Filename string          `json:"filename"`
	Text     string          `json:"text"`
	Stats    PreprocessStats `json:"stats"`
}

// PreprocessStats records before/after measurements of one normalization run.
type PreprocessStats struct {
	OriginalLength   int     `json:"original_length"`
	ProcessedLength  int     `json:"processed_length"`
	ReductionChars   int     `json:"reduction_chars"`
	ReductionPercent float64 `json:"reduction_percent"`
	OriginalLines    int     `json:"original_lines"`
	ProcessedLines   int     `json:"processed_lines"`
}

// ProcessedMetadata is persisted next to each processed text file.
type ProcessedMetadata struct {
	Title             string          `json:"title"`
	Type              string          `json:"type"`
	Source            string          `json:"source"`
	URL               string          `json:"url"`
	ExtractionDate    string          `json:"extraction_date"`
	PreprocessingDate string          `json:"preprocessing_date"`
	PreprocessStats   PreprocessStats `json:"preprocessing_stats"`
	ProcessedFile     string          `json:"processed_file"`
}

// DocumentChunk is one span of processed text sized for embedding.
type DocumentChunk struct {
	Content       string `json:"content"`
	FilePath      string `json:"file_path"`
	SourceID      string `json:"source_id"`
	SplitID       string `json:"split_id"`
	SplitIdxStart int    `json:"split_idx_start"`
	Page          int    `json:"page,omitempty"`
}

// DocumentServiceConfig contains chunking options for the splitter.
type DocumentServiceConfig struct {
	MaxChunkSize int
	OverlapSize  int
}

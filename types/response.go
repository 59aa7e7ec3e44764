package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type SearchResponse struct {
	Chunks []RetrievedChunk `json:"chunks"`
}

type AskResponse struct {
	Answer string           `json:"answer"`
	Chunks []RetrievedChunk `json:"chunks"`
}

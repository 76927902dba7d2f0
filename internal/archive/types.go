package archive

// ManifestEntry is one line of the monthly JSONL index of archived reports.
type ManifestEntry struct {
	BatchID        string `json:"batch_id"`
	S3Key          string `json:"s3_key"`
	Sender         string `json:"sender"`
	Records        int    `json:"records"`
	Attempted      int    `json:"attempted"`
	Failed         int    `json:"failed"`
	InvalidNumbers int    `json:"invalid_numbers"`
	Stopped        bool   `json:"stopped,omitempty"`
	ArchivedAt     string `json:"archived_at"`
}

// Package protocol defines the JSON shapes exchanged over the HTTP API
// and the progress events published on the bus.
package protocol

import "time"

// TranslateRequest is the single-phrase translate-and-speak input.
type TranslateRequest struct {
	Text string `json:"text"`
}

// TranslateResponse carries the translated text and encoded audio.
type TranslateResponse struct {
	HindiText   string `json:"hindi_text"`
	AudioBase64 string `json:"audio_base64"`
	AudioFormat string `json:"audio_format"`
}

// CSVPreviewRequest asks for a parsed preview of a call sheet.
type CSVPreviewRequest struct {
	CSVPath string `json:"csv_path"`
}

// RecordPreview is one call-sheet row echoed back to the caller.
type RecordPreview struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Salary      string `json:"salary"`
	PhoneNumber string `json:"phone_number"`
}

// CSVPreviewResponse summarizes a parsed call sheet.
type CSVPreviewResponse struct {
	Message string          `json:"message"`
	Records int             `json:"records"`
	Preview []RecordPreview `json:"preview"`
}

// BatchRequest triggers bulk audio generation for selected records.
type BatchRequest struct {
	CSVPath         string `json:"csv_path"`
	SelectedIndices []int  `json:"selected_indices,omitempty"`
	OutputMode      string `json:"output_mode,omitempty"` // inline, path
	OutputFolder    string `json:"output_folder,omitempty"`
}

// BatchSucceeded is one completed recording, inline or on disk.
type BatchSucceeded struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// BatchFailed is one record that could not be generated.
type BatchFailed struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResponse enumerates every selected record as success or failure.
type BatchResponse struct {
	BatchID   string           `json:"batch_id"`
	Total     int              `json:"total"`
	Succeeded []BatchSucceeded `json:"succeeded"`
	Failed    []BatchFailed    `json:"failed"`
}

// RecordEvent is published on the bus after each record finishes.
type RecordEvent struct {
	BatchID   string    `json:"batch_id"`
	Index     int       `json:"index"`
	Name      string    `json:"name,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchEvent is published once a batch completes.
type BatchEvent struct {
	BatchID   string    `json:"batch_id"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectRecordDone   = "bulk.record.done"
	SubjectRecordFailed = "bulk.record.failed"
	SubjectBatchDone    = "bulk.batch.done"
)

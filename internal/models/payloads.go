package models

// These structs define the JSON payloads for the workbench callables and the
// graph sync hooks.

// CallableRequest is the common input shape of all workbench callables.
type CallableRequest struct {
	FanzineID string `json:"fanzineId"`
}

// BatchOCRResponse is the output of trigger_batch_ocr.
type BatchOCRResponse struct {
	Success     bool `json:"success"`
	QueuedCount int  `json:"queued_count"`
}

// FinalizeResponse is the output of finalize_fanzine_data.
type FinalizeResponse struct {
	Success     bool `json:"success"`
	EntityCount int  `json:"entity_count"`
}

// AckResponse is the output of rescan_fanzine and delete_fanzine.
type AckResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is returned when a callable rejects a request.
type ErrorResponse struct {
	Error string `json:"error"`
}

package capture

// StartRequest begins a capture session for one table
type StartRequest struct {
	TableID string `json:"table_id" validate:"required,table_id"`
}

package study

import "time"

// Dataset records a survey file attached to a study.
type Dataset struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	AddedAt     time.Time `json:"added_at"`
}

// Report records a saved analysis report.
type Report struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // describe|test
	File      string    `json:"file"` // relative to the study directory
	DatasetID string    `json:"dataset_id,omitempty"`
	Failures  int       `json:"failures,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

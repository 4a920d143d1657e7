package database

import "time"

// PredictionAudit is one scored applicant record as persisted for auditing
type PredictionAudit struct {
	ID             int64     `db:"id" json:"id"`
	RequestID      string    `db:"request_id" json:"request_id"`
	Subject        string    `db:"subject" json:"subject"`
	Route          string    `db:"route" json:"route"`
	BatchIndex     int       `db:"batch_index" json:"batch_index"`
	Score          float64   `db:"score" json:"score"`
	Interpretation string    `db:"interpretation" json:"interpretation"`
	Features       string    `db:"features" json:"features"` // JSON-encoded applicant profile
	ClientIP       string    `db:"client_ip" json:"client_ip"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

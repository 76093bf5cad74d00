package history

import (
	"time"
)

// RequestIDSize is the widest request id the RequestID column holds.
const RequestIDSize = 64

// Search is one answered /movie-result request.
type Search struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"size:64;index" json:"request_id"`
	Query      string    `gorm:"type:text;not null" json:"query"`
	Refined    string    `gorm:"type:text" json:"refined"`
	ResultsLen int       `json:"results"`
	TopTitle   string    `gorm:"size:512" json:"top_title"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

package api

import (
	"time"

	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/recommend"
)

// CategoryResponse is one category with its progress.
type CategoryResponse struct {
	Key         string                    `json:"key"`
	Title       string                    `json:"title"`
	Continent   string                    `json:"continent"`
	GroupNumber *int                      `json:"groupNumber,omitempty"`
	TotalGroups int                       `json:"totalGroups"`
	Members     []string                  `json:"members"`
	Progress    progress.CategoryProgress `json:"progress"`
	Recommended bool                      `json:"recommended"`
}

// RecommendationResponse explains the smart-learning pick. Key is empty
// when everything is caught up.
type RecommendationResponse struct {
	recommend.Pick
	Title string `json:"title,omitempty"`
}

// ItemResponse is one flag with its progress.
type ItemResponse struct {
	Code      string                `json:"code"`
	Name      string                `json:"name"`
	Continent string                `json:"continent"`
	Category  string                `json:"category,omitempty"`
	Progress  progress.ItemProgress `json:"progress"`
}

// MarkLearnedResponse reports the outcome of marking a flag learned.
type MarkLearnedResponse struct {
	Code      string `json:"code"`
	FirstTime bool   `json:"firstTime"`
}

// HistoryResponse is one smart-learning pick.
type HistoryResponse struct {
	Category    string    `json:"category"`
	StartTime   time.Time `json:"startTime"`
	SessionType string    `json:"sessionType"`
	SessionID   string    `json:"sessionId,omitempty"`
}

// ResetRequest must carry confirm=true.
type ResetRequest struct {
	Confirm bool `json:"confirm" validate:"required"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

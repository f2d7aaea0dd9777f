package dto

import (
	"time"

	"golang-backtest/internal/model"
)

type JobRunResponse struct {
	ID           uint       `json:"id"`
	JobName      string     `json:"job_name"`
	Strategy     string     `json:"strategy"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	Output       string     `json:"output,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

func NewJobRunResponses(runs []model.JobRun) []JobRunResponse {
	out := make([]JobRunResponse, 0, len(runs))
	for _, r := range runs {
		resp := JobRunResponse{
			ID:           r.ID,
			JobName:      r.JobName,
			Strategy:     r.Strategy,
			Status:       string(r.Status),
			StartedAt:    r.StartedAt,
			Output:       r.Output.String,
			ErrorMessage: r.ErrorMessage.String,
		}
		if r.CompletedAt.Valid {
			completed := r.CompletedAt.Time
			resp.CompletedAt = &completed
		}
		out = append(out, resp)
	}
	return out
}

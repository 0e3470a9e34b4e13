package dto

import "time"

type CreateReportRequest struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type ReportResponse struct {
	ID           int64     `json:"id"`
	TrackingID   string    `json:"tracking_id"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	AppealStatus string    `json:"appeal_status"`
	IssueDate    time.Time `json:"issue_date"`
}

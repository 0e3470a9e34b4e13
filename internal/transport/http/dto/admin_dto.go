package dto

import "time"

type ReportDecisionRequest struct {
	Status string `json:"status"`
}

type AppealDecisionRequest struct {
	Decision string `json:"decision"` // "accepted" or "rejected"
}

type DecisionResponse struct {
	Report           ReportResponse `json:"report"`
	TrustScore       int            `json:"trust_score"`
	DeactivatedUntil *time.Time     `json:"deactivated_until,omitempty"`
	DeactivatedDays  int            `json:"deactivated_days,omitempty"`
}

type AdjustTrustRequest struct {
	Delta int `json:"delta"`
}

type AdjustTrustResponse struct {
	UserID     int64 `json:"user_id"`
	TrustScore int   `json:"trust_score"`
}

type DeactivateUserRequest struct {
	Days int `json:"days"`
}

type DeactivateUserResponse struct {
	UserID           int64     `json:"user_id"`
	DeactivatedUntil time.Time `json:"deactivated_until"`
	ActivationTime   string    `json:"activation_time"`
}

type TrustLogEntryPayload struct {
	ID           int64     `json:"id"`
	Delta        int       `json:"delta"`
	Reason       string    `json:"reason"`
	ReportID     *int64    `json:"report_id,omitempty"`
	AppealStatus string    `json:"appeal_status"`
	AdminID      *int64    `json:"admin_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TrustLogResponse struct {
	UserID  int64                  `json:"user_id"`
	Entries []TrustLogEntryPayload `json:"entries"`
}

type TrustDailyMetricPayload struct {
	Day       string `json:"day"`
	Changes   int    `json:"changes"`
	Penalties int    `json:"penalties"`
	Rewards   int    `json:"rewards"`
	NetDelta  int    `json:"net_delta"`
}

type TrustMetricsResponse struct {
	From time.Time                 `json:"from"`
	To   time.Time                 `json:"to"`
	Days []TrustDailyMetricPayload `json:"days"`
}

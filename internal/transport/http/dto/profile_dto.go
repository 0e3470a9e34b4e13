package dto

import "time"

type IncentiveStatusPayload struct {
	Granted             bool `json:"granted"`
	Amount              int  `json:"amount"`
	RewardUnit          int  `json:"reward_unit"`
	WindowSize          int  `json:"window_size"`
	WindowResolvedCount int  `json:"window_resolved_count"`
	EligibleNow         bool `json:"eligible_now"`
	JustGranted         bool `json:"just_granted"`
}

type ProfileResponse struct {
	UserID           int64                  `json:"user_id"`
	TrustScore       int                    `json:"trust_score"`
	Deactivated      bool                   `json:"deactivated"`
	DeactivatedUntil *time.Time             `json:"deactivated_until,omitempty"`
	ActivationTime   string                 `json:"activation_time,omitempty"`
	Incentive        IncentiveStatusPayload `json:"incentive"`
}

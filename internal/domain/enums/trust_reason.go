package enums

// TrustReason tags every audit ledger entry with why a score changed.
type TrustReason string

const (
	TrustReasonReportAccepted  TrustReason = "report_accepted"
	TrustReasonReportRejected  TrustReason = "report_rejected"
	TrustReasonAppealAccepted  TrustReason = "appeal_accepted"
	TrustReasonAppealRejected  TrustReason = "appeal_rejected"
	TrustReasonAdminAdjustment TrustReason = "admin_adjustment"
)

package enums

type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusRejected   ReportStatus = "rejected"
	ReportStatusResolved   ReportStatus = "resolved"
	ReportStatusClosed     ReportStatus = "closed"
)

func IsValidReportStatus(value string) bool {
	switch ReportStatus(value) {
	case ReportStatusPending, ReportStatusInProgress, ReportStatusRejected, ReportStatusResolved, ReportStatusClosed:
		return true
	}
	return false
}

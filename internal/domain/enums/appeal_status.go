package enums

type AppealStatus string

const (
	AppealStatusNotAppealed AppealStatus = "not_appealed"
	AppealStatusPending     AppealStatus = "pending"
	AppealStatusAccepted    AppealStatus = "accepted"
	AppealStatusRejected    AppealStatus = "rejected"
)

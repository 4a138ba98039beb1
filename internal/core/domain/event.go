package domain

import "time"

// AuditKind names an authentication event worth keeping.
type AuditKind string

const (
	AuditLoginSucceeded         AuditKind = "login_succeeded"
	AuditLoginFailed            AuditKind = "login_failed"
	AuditUserRegistered         AuditKind = "user_registered"
	AuditProfessionalRegistered AuditKind = "professional_registered"
	AuditRegistrationRejected   AuditKind = "registration_rejected"
)

// AuditEvent records an authentication outcome. Reason is server-side only
// and may say which check failed.
type AuditEvent struct {
	Kind        AuditKind
	PrincipalID int64 // 0 when no account was resolved
	Email       string
	Reason      string
	Meta        RequestMeta
	OccurredAt  time.Time
}

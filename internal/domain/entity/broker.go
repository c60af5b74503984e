package entity

import (
	"time"
)

// BrokerStatus is the business-verification state of a broker profile.
// It is independent of the owning account's OTP verification flag and
// only transitions through back-office review, never through this API.
type BrokerStatus string

const (
	BrokerStatusPending  BrokerStatus = "pending"
	BrokerStatusVerified BrokerStatus = "verified"
	BrokerStatusRejected BrokerStatus = "rejected"
)

// Broker is the business-facing profile, one per account.
type Broker struct {
	ID                 string
	UserID             string
	CompanyName        string
	BrokerLicense      string
	LicenseState       string
	VerificationStatus BrokerStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

package domain

import "time"

// OTPValidity is the window during which an issued code can be verified and,
// once verified, the window during which the record still counts as proof of
// ownership. Both are measured from CreatedAt, never from verification time.
const OTPValidity = 10 * time.Minute

// OTP is one issued one-time passcode.
// PK: identity, SK: otp_id. The otp_id is a ULID, so sorting by SK is sorting
// by creation time and the newest record is the first item of a descending
// query. Identity is the canonical key produced by pkg/identity: a cleaned
// phone number, or an "email:"-prefixed lower-cased address — the two
// namespaces share this table without colliding.
type OTP struct {
	Identity  string    `json:"identity" dynamodbav:"identity"`
	OTPID     string    `json:"id" dynamodbav:"otp_id"`
	Code      string    `json:"-" dynamodbav:"code"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the record is past its validity window at now.
func (o *OTP) Expired(now time.Time) bool {
	return now.Sub(o.CreatedAt) > OTPValidity
}

// Package sms delivers one-time passcodes to mobile numbers.
//
// Senders report delivery as a bool and never surface transport errors to the
// caller's control flow: a failed send must not fail issuance, because the
// persisted code stays valid regardless of whether this delivery attempt
// reached the handset.
package sms

import (
	"context"
	"fmt"
)

// Sender delivers an OTP to a mobile number. The destination is the cleaned,
// dialable number, never the storage identity.
type Sender interface {
	SendOTP(ctx context.Context, mobile, code string) bool
}

// renderMessage builds the human-readable SMS body. The wording, including
// the disclosure disclaimer, is fixed by the provider's approved template.
func renderMessage(code, senderID string) string {
	return fmt.Sprintf(
		"Dear Customer, %s is your OTP for Login and registration. OTPs are SECRET, Do not disclose it to anyone %s",
		code, senderID)
}

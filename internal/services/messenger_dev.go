package services

import "log"

// DevLogMessenger prints the code to the server log instead of sending it.
// Local development only; selected when no channel is configured.
type DevLogMessenger struct{}

func (DevLogMessenger) SendOTP(phone, code string) error {
	log.Printf("📨 [dev] OTP for %s: %s", phone, code)
	return nil
}

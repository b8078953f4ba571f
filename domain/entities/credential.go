package entities

import (
	"errors"
	"time"
)

// ActivationCodeLength is the number of digits a toy speaks during setup.
const ActivationCodeLength = 6

// ActivationCredential is a row in the broker auth table. One row per physical
// toy, provisioned at manufacturing time. Once IsActive flips to true the
// activation code is considered consumed.
type ActivationCredential struct {
	ID             string    `json:"id,omitempty" bson:"-"`
	ActivationCode string    `json:"activation_code" bson:"activation_code"`
	MacID          string    `json:"mac_id" bson:"mac_id"`
	IsActive       bool      `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

func (c *ActivationCredential) Validate() error {
	if c.MacID == "" {
		return errors.New("mac id is required")
	}
	if err := ValidateActivationCode(c.ActivationCode); err != nil {
		return err
	}
	return nil
}

// ValidateActivationCode checks the human-entered code format before any
// store access: exactly six ASCII digits.
func ValidateActivationCode(code string) error {
	if len(code) != ActivationCodeLength {
		return errors.New("activation code must be 6 digits")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return errors.New("activation code must be numeric")
		}
	}
	return nil
}

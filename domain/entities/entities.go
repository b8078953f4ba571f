package entities

import (
	"errors"
	"time"
)

// Sensitivity controls how eagerly a toy reacts to ambient conversation.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "LOW"
	SensitivityMedium Sensitivity = "MEDIUM"
	SensitivityHigh   Sensitivity = "HIGH"
)

// Valid reports whether the value is one of the known sensitivity levels.
func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return true
	}
	return false
}

// Defaults applied when a toy is first bound to an account.
const (
	DefaultToyName     = "Cheeko"
	DefaultRoleType    = "Story Teller"
	DefaultLanguage    = "English"
	DefaultVoice       = "Sparkles for Kids"
	DefaultSensitivity = SensitivityMedium
)

// Option lists the edit surface draws from. The store does not enforce these.
var (
	RoleTypes = []string{"Story Teller", "Teacher", "Friend", "Coach"}
	Languages = []string{"English", "Hindi", "Spanish", "French"}
	Voices    = []string{"Sparkles for Kids", "Friendly Voice", "Warm Narrator", "Cheerful Guide"}
)

// ValidRoleType reports whether v is a known role type.
func ValidRoleType(v string) bool { return contains(RoleTypes, v) }

// ValidLanguage reports whether v is a known language.
func ValidLanguage(v string) bool { return contains(Languages, v) }

// ValidVoice reports whether v is a known voice.
func ValidVoice(v string) bool { return contains(Voices, v) }

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// Toy represents a toy bound to a parent account.
type Toy struct {
	ID              string      `json:"id" bson:"-"`
	UserID          string      `json:"user_id" bson:"user_id"`
	MacID           string      `json:"toy_mac_id" bson:"toy_mac_id"`
	ActivationCode  string      `json:"activation_code,omitempty" bson:"activation_code,omitempty"`
	Name            string      `json:"name" bson:"name"`
	RoleType        string      `json:"role_type" bson:"role_type"`
	Language        string      `json:"language" bson:"language"`
	Voice           string      `json:"voice" bson:"voice"`
	KidName         string      `json:"kid_name,omitempty" bson:"kid_name,omitempty"`
	Sensitivity     Sensitivity `json:"conversation_sensitivity" bson:"conversation_sensitivity"`
	WifiProvisioned bool        `json:"is_wifi_provisioned" bson:"is_wifi_provisioned"`
	LastWifiUpdate  *time.Time  `json:"last_wifi_update,omitempty" bson:"last_wifi_update,omitempty"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
}

// NewToy builds a toy with the default configuration applied at binding time.
func NewToy(userID, macID, activationCode string) *Toy {
	return &Toy{
		UserID:          userID,
		MacID:           macID,
		ActivationCode:  activationCode,
		Name:            DefaultToyName,
		RoleType:        DefaultRoleType,
		Language:        DefaultLanguage,
		Voice:           DefaultVoice,
		Sensitivity:     DefaultSensitivity,
		WifiProvisioned: true,
		CreatedAt:       time.Now(),
	}
}

func (t *Toy) Validate() error {
	if t.UserID == "" {
		return errors.New("user id is required")
	}
	if t.MacID == "" {
		return errors.New("mac id is required")
	}
	if t.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// ToyPatch holds a partial update for a toy. Nil fields are left untouched.
type ToyPatch struct {
	Name        *string      `json:"name,omitempty"`
	RoleType    *string      `json:"role_type,omitempty"`
	Language    *string      `json:"language,omitempty"`
	Voice       *string      `json:"voice,omitempty"`
	KidName     *string      `json:"kid_name,omitempty"`
	Sensitivity *Sensitivity `json:"conversation_sensitivity,omitempty"`
}

// Empty reports whether the patch would write nothing.
func (p ToyPatch) Empty() bool {
	return p.Name == nil && p.RoleType == nil && p.Language == nil &&
		p.Voice == nil && p.KidName == nil && p.Sensitivity == nil
}

// Validate checks the present fields against the closed option lists.
func (p ToyPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	if p.RoleType != nil && !ValidRoleType(*p.RoleType) {
		return errors.New("unknown role type")
	}
	if p.Language != nil && !ValidLanguage(*p.Language) {
		return errors.New("unknown language")
	}
	if p.Voice != nil && !ValidVoice(*p.Voice) {
		return errors.New("unknown voice")
	}
	if p.Sensitivity != nil && !p.Sensitivity.Valid() {
		return errors.New("unknown sensitivity")
	}
	return nil
}

// ParentProfile holds the contact details a parent saves for their account.
// Created lazily on first save, updated thereafter, never deleted.
type ParentProfile struct {
	ID                string `json:"id,omitempty" bson:"-"`
	UserID            string `json:"user_id" bson:"user_id"`
	ParentName        string `json:"parent_name" bson:"parent_name"`
	ParentEmail       string `json:"parent_email" bson:"parent_email"`
	ParentPhoneNumber string `json:"parent_phone_number,omitempty" bson:"parent_phone_number,omitempty"`
}

func (p *ParentProfile) Validate() error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.ParentName == "" {
		return errors.New("parent name is required")
	}
	if p.ParentEmail == "" {
		return errors.New("parent email is required")
	}
	return nil
}

// User represents a parent account.
type User struct {
	ID           string    `json:"id" bson:"-"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

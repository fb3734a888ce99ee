package models

import (
	"errors"
	"time"

	"github.com/ironpulse/clubsite/internal/matching"
)

// ErrDuplicateOptionValue is returned by stores when an active answer option
// would share its value with another active option of the same question.
var ErrDuplicateOptionValue = errors.New("duplicate answer value")

// Club is a physical location of the chain.
type Club struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Slug      string    `json:"slug,omitempty" validate:"omitempty,slug"`
	Address   string    `json:"address,omitempty" validate:"max=500"`
	Phone     string    `json:"phone,omitempty" validate:"max=50"`
	Schedule  string    `json:"schedule,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty" validate:"omitempty,url"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Trainer is a staff member shown on the site and referenced by rules.
type Trainer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,max=200"`
	Position     string    `json:"position,omitempty" validate:"max=200"`
	Bio          string    `json:"bio,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty" validate:"omitempty,url"`
	ClubIDs      []string  `json:"club_ids"`
	DirectionIDs []string  `json:"direction_ids"`
	Order        int       `json:"order"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Direction is a class type (yoga, boxing, ...).
type Direction struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=200"`
	Slug        string    `json:"slug,omitempty" validate:"omitempty,slug"`
	Description string    `json:"description,omitempty"`
	IconURL     string    `json:"icon_url,omitempty" validate:"omitempty,url"`
	Order       int       `json:"order"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	QuestionSingle = "single"
	QuestionMulti  = "multi"
)

// Question is one step of the lead quiz. Questions are archived, never deleted,
// so stored submissions keep pointing at them.
type Question struct {
	ID        string         `json:"id"`
	Text      string         `json:"text" validate:"required,max=500"`
	Kind      string         `json:"kind" validate:"required,oneof=single multi"`
	Order     int            `json:"order"`
	Active    bool           `json:"active"`
	Options   []AnswerOption `json:"options"`
	CreatedAt time.Time      `json:"created_at"`
}

// AnswerOption belongs to a single question. Value is the token rules match on.
type AnswerOption struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text" validate:"required,max=300"`
	Value      string `json:"value" validate:"required,max=100"`
	Order      int    `json:"order"`
	Active     bool   `json:"active"`
}

// Submission is one completed quiz. Immutable once stored.
type Submission struct {
	ID              string                  `json:"id"`
	SessionID       string                  `json:"session_id"`
	Answers         map[string]string       `json:"answers"`
	Recommendations []matching.MatchSummary `json:"recommendations"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Lead is a contact request collected by the site.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Phone     string    `json:"phone" validate:"required,min=5,max=30"`
	ClubID    string    `json:"club_id,omitempty"`
	Comment   string    `json:"comment,omitempty" validate:"max=2000"`
	Source    string    `json:"source,omitempty" validate:"max=50"`
	SessionID string    `json:"session_id,omitempty"`
	Forwarded bool      `json:"forwarded"`
	CreatedAt time.Time `json:"created_at"`
}

// SiteSettings is the site-wide configuration editable from the admin panel.
type SiteSettings struct {
	Phone        string            `json:"phone" yaml:"phone" validate:"max=50"`
	Email        string            `json:"email" yaml:"email" validate:"omitempty,email"`
	Address      string            `json:"address" yaml:"address"`
	WorkingHours string            `json:"working_hours" yaml:"working_hours"`
	HeroTitle    string            `json:"hero_title" yaml:"hero_title" validate:"max=200"`
	HeroSubtitle string            `json:"hero_subtitle" yaml:"hero_subtitle"`
	Socials      map[string]string `json:"socials,omitempty" yaml:"socials,omitempty"`
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at" yaml:"-"`
}

// AuditEntry records an admin action.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// LeadNotice is a lead prepared for delivery to external systems.
type LeadNotice struct {
	Lead            Lead     `json:"lead"`
	ClubName        string   `json:"club_name,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

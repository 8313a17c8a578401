package domain

import (
	"strings"
	"time"
)

// JobCard is a workshop job card with an attached image. Only the job card
// repository writes it.
type JobCard struct {
	ID            string    `json:"id"`
	JobCardNumber string    `json:"job_card_number"`
	ChassisNumber *string   `json:"chassis_number"`
	ImagePath     string    `json:"image_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewJobCard carries the caller-supplied fields for creation.
type NewJobCard struct {
	JobCardNumber string
	ImagePath     string
	ChassisNumber *string // nil means absent
}

func (n NewJobCard) Validate() error {
	if strings.TrimSpace(n.JobCardNumber) == "" {
		return Validation("job_card_number is required")
	}
	if strings.TrimSpace(n.ImagePath) == "" {
		return Validation("image_path is required")
	}
	return nil
}

// JobCardPatch selects the fields an update writes. Absent fields are left
// untouched; ChassisNumber may be explicitly null to clear it.
type JobCardPatch struct {
	JobCardNumber Field[string] `json:"job_card_number"`
	ChassisNumber Field[string] `json:"chassis_number"`
	ImagePath     Field[string] `json:"image_path"`
}

// IsEmpty reports whether the patch supplies no field at all.
func (p JobCardPatch) IsEmpty() bool {
	return !p.JobCardNumber.IsPresent() && !p.ChassisNumber.IsPresent() && !p.ImagePath.IsPresent()
}

// Validate rejects nulls and blanks for the required columns.
func (p JobCardPatch) Validate() error {
	if err := requiredField("job_card_number", p.JobCardNumber); err != nil {
		return err
	}
	return requiredField("image_path", p.ImagePath)
}

func requiredField(name string, f Field[string]) error {
	if !f.IsPresent() {
		return nil
	}
	v, ok := f.Value()
	if !ok {
		return Validation(name + " cannot be null")
	}
	if strings.TrimSpace(v) == "" {
		return Validation(name + " cannot be empty")
	}
	return nil
}

// Apply copies the supplied fields onto c. It does not touch timestamps.
func (p JobCardPatch) Apply(c *JobCard) {
	if v, ok := p.JobCardNumber.Value(); ok {
		c.JobCardNumber = v
	}
	if p.ChassisNumber.IsPresent() {
		c.ChassisNumber = p.ChassisNumber.Ptr()
	}
	if v, ok := p.ImagePath.Value(); ok {
		c.ImagePath = v
	}
}

// JobCardEventType names a lifecycle transition published to subscribers.
type JobCardEventType string

const (
	JobCardCreated JobCardEventType = "jobcard.created"
	JobCardUpdated JobCardEventType = "jobcard.updated"
	JobCardDeleted JobCardEventType = "jobcard.deleted"
)

// JobCardEvent is emitted after a successful mutation.
type JobCardEvent struct {
	Type       JobCardEventType `json:"type"`
	JobCard    JobCard          `json:"job_card"`
	Actor      string           `json:"actor,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

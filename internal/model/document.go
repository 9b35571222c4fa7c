package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccessType tells whether a document is downloadable for free or must be bought.
type AccessType string

const (
	AccessFree AccessType = "free"
	AccessPaid AccessType = "paid"
)

// Semester is the academic term a document belongs to.
type Semester string

const (
	SemesterFall   Semester = "Fall"
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
)

// Passkey is a single-use access key of a paid document.
// Once IsUsed is true UsedBy is set and the key is never handed out again.
type Passkey struct {
	Key    string  `json:"key"`
	IsUsed bool    `json:"is_used"`
	UsedBy *string `json:"used_by,omitempty"`
}

// Document is an uploaded academic document.
// It is a pure domain model; persistence details live in the repository implementations.
type Document struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	University     string          `json:"university"`
	Semester       Semester        `json:"semester"`
	AcademicYear   int             `json:"academic_year"`
	CourseName     string          `json:"course_name"`
	InstructorName string          `json:"instructor_name"`
	AccessType     AccessType      `json:"access_type"`
	Price          decimal.Decimal `json:"price"`
	FileURL        string          `json:"file_url"`
	OwnerID        string          `json:"owner_id"`
	Upvotes        int64           `json:"upvotes"`
	Tags           []string        `json:"tags"`
	Passkeys       []Passkey       `json:"passkeys,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ValidationError describes which field of a document is invalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the invariants every stored document must satisfy.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(d.CourseName) == "" {
		return ValidationError{Field: "course_name", Message: "is required"}
	}
	switch d.Semester {
	case SemesterFall, SemesterSpring, SemesterSummer:
	default:
		return ValidationError{Field: "semester", Message: "must be one of Fall, Spring, Summer"}
	}
	if d.AcademicYear <= 0 {
		return ValidationError{Field: "academic_year", Message: "must be positive"}
	}
	if d.OwnerID == "" {
		return ValidationError{Field: "owner_id", Message: "is required"}
	}
	if d.Price.IsNegative() {
		return ValidationError{Field: "price", Message: "must not be negative"}
	}

	switch d.AccessType {
	case AccessPaid:
		if !d.Price.IsPositive() {
			return ValidationError{Field: "price", Message: "is required for paid documents"}
		}
	case AccessFree:
		if !d.Price.IsZero() {
			return ValidationError{Field: "price", Message: "must be zero for free documents"}
		}
		if len(d.Passkeys) > 0 {
			return ValidationError{Field: "passkeys", Message: "only paid documents carry passkeys"}
		}
	default:
		return ValidationError{Field: "access_type", Message: "must be free or paid"}
	}

	for _, tag := range d.Tags {
		if strings.TrimSpace(tag) == "" {
			return ValidationError{Field: "tags", Message: "must not contain empty tags"}
		}
	}
	return nil
}

// IsPaid reports whether the document must be bought.
func (d *Document) IsPaid() bool { return d.AccessType == AccessPaid }

// Public returns a copy suitable for users other than the owner: passkeys are stripped.
func (d Document) Public() Document {
	d.Passkeys = nil
	return d
}

// NormalizeTags lower-cases, trims and de-duplicates tags keeping their first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validDocument() Document {
	return Document{
		ID:           "d1",
		Title:        "Networks",
		Semester:     SemesterFall,
		AcademicYear: 2024,
		CourseName:   "Computer Networks",
		AccessType:   AccessPaid,
		Price:        decimal.NewFromInt(50),
		OwnerID:      "owner",
		Passkeys:     []Passkey{{Key: "abc"}},
	}
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *Document)
		wantField string
	}{
		{"valid paid", func(*Document) {}, ""},
		{"valid free", func(d *Document) { d.AccessType = AccessFree; d.Price = decimal.Zero; d.Passkeys = nil }, ""},
		{"missing title", func(d *Document) { d.Title = "  " }, "title"},
		{"missing course", func(d *Document) { d.CourseName = "" }, "course_name"},
		{"bad semester", func(d *Document) { d.Semester = "Winter" }, "semester"},
		{"bad year", func(d *Document) { d.AcademicYear = 0 }, "academic_year"},
		{"no owner", func(d *Document) { d.OwnerID = "" }, "owner_id"},
		{"negative price", func(d *Document) { d.Price = decimal.NewFromInt(-1) }, "price"},
		{"paid without price", func(d *Document) { d.Price = decimal.Zero }, "price"},
		{"free with price", func(d *Document) { d.AccessType = AccessFree; d.Passkeys = nil }, "price"},
		{"free with passkeys", func(d *Document) { d.AccessType = AccessFree; d.Price = decimal.Zero }, "passkeys"},
		{"unknown access", func(d *Document) { d.AccessType = "rent" }, "access_type"},
		{"empty tag", func(d *Document) { d.Tags = []string{"ok", " "} }, "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDocument()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			if assert.ErrorAs(t, err, &ve) {
				assert.Equal(t, tt.wantField, ve.Field)
			}
		})
	}
}

func TestDocument_Public(t *testing.T) {
	d := validDocument()
	pub := d.Public()
	assert.Nil(t, pub.Passkeys)
	assert.Len(t, d.Passkeys, 1)
	assert.Equal(t, d.ID, pub.ID)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "db"}, NormalizeTags([]string{" Go", "db", "GO", "", "  "}))
	assert.Equal(t, []string{}, NormalizeTags(nil))
}

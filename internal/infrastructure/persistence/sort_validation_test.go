package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE merchants;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "business_name"},
		{"valid field returns field", "slug", "slug"},
		{"unknown field returns default", "owner_id", "business_name"},
		{"sql injection attempt returns default", "slug; DROP TABLE merchants;--", "business_name"},
		{"case sensitive", "SLUG", "business_name"},
		{"whitespace around valid field returns field", "  created_at  ", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, MerchantSortFields, "business_name"))
		})
	}
}

func TestBookingSortFields(t *testing.T) {
	assert.True(t, BookingSortFields["scheduled_at"])
	assert.False(t, BookingSortFields["contact_phone"])
}

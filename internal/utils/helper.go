package utils

import "github.com/google/uuid"

// NewRecordID returns prefix-<uuid>, e.g. owner-… or owner-hide-….
func NewRecordID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package utils

type contextKey string

const (
	OwnerSubjectKey contextKey = "owner_subject"
	RoleKey         contextKey = "role"
)

const RoleOwner = "owner"

// SessionHeader carries the shopper's cart session id.
const SessionHeader = "X-Session-ID"

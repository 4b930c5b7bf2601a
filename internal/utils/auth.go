package utils

import "context"

// SetOwnerContext marks the request as made by the authenticated owner (called by middleware)
func SetOwnerContext(ctx context.Context, subject string) context.Context {
	ctx = context.WithValue(ctx, OwnerSubjectKey, subject)
	return context.WithValue(ctx, RoleKey, RoleOwner)
}

// GetOwnerFromContext retrieves the owner subject safely
func GetOwnerFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(OwnerSubjectKey).(string)
	return sub, ok && sub != ""
}

func GetRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

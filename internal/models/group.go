package models

// Group represents a set of users sharing expenses together.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates").
	Name string

	// Description is an optional free-form description.
	Description string

	// CreatedBy is the user ID of the group creator.
	CreatedBy string

	// Members is the list of member user IDs. The creator is always a
	// member.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the given user belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

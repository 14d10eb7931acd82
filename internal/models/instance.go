package models

// Instance is a date-scoped event within a group (a dinner, a trip
// day) that items are recorded under.
type Instance struct {
	// ID is the unique identifier for the instance (UUID format).
	ID string

	// GroupID is the group this instance belongs to.
	GroupID string

	// Name is the display name of the event.
	Name string

	// Date is the event date in YYYY-MM-DD form.
	Date string

	// Description is an optional free-form description.
	Description string

	// CreatedBy is the user ID that created the instance.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the instance was created.
	CreatedAt int64
}

package storage

// NotFoundError is returned when a label doesn't exist in the store.
type NotFoundError struct {
	Label string
}

func (e NotFoundError) Error() string {
	if e.Label == "" {
		return "snapshot record not found"
	}

	return "snapshot record not found: " + e.Label
}

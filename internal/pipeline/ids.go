package pipeline

import "github.com/google/uuid"

// newJobID returns a time-ordered id that is safe to use as a directory name.
func newJobID() string {
	return uuid.Must(uuid.NewV7()).String()
}

package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique identifier for a new entity.
func New() string {
	return ksuid.New().String()
}

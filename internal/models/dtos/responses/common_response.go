package responses

import "time"

// APIResponse is the envelope every JSON endpoint of the status server returns.
type APIResponse[T any] struct {
	Status    string    `json:"status"` // success or error
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
	Data      *T        `json:"data,omitempty"`
}

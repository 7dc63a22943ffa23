package chat

import "time"

// Exchange records one farmer query and the answer it received.
type Exchange struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

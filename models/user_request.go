package models

// UserRequest is one entry in a user's activity log.
type UserRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Route  string `json:"route"`
}

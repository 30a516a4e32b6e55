package entity

// UserLoginData is the subset of token claims the pipeline cares about.
// Authentication itself lives outside this service.
type UserLoginData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

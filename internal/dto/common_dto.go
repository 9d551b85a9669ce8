package dto

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string   `json:"status"`
	Timestamp  string   `json:"timestamp"`
	DB         string   `json:"db"`
	Candidates []string `json:"candidates"`
}

package objects

// ErrorResponse is the uniform error envelope returned by the API.
type ErrorResponse struct {
	Error Error `json:"error"`
}

// Error carries the HTTP status text and a caller-safe message.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

package httpclient

type Response struct {
	StatusCode int
	Headers    map[string]string
	RequestID  string
}

// ErrorResponse is the JSON error envelope servers commonly send. Hyperion
// uses the "error" key; other services use "message".
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r ErrorResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}

	return r.Error
}

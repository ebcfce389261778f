package httpdto

// Response is the envelope every HTTP endpoint returns. Success and
// error payloads share one shape so clients branch on Success alone;
// Code carries the machine-readable error kind the middleware maps
// from typed errors.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// NewErrorResponse builds a failure envelope. The error string may be
// user-facing (the Dutch rule violations go out verbatim).
func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{Success: false, Error: err, Code: code}
}

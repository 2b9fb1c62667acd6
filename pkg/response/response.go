package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Meta       interface{} `json:"meta,omitempty"`
	Code       string      `json:"code,omitempty"` // machine-readable error code
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Paged returns a success response with paging metadata next to the data
func Paged(statusCode int, data, meta interface{}) Response {
	res := Success(statusCode, data)
	res.Meta = meta
	return res
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// CodedError is Error with a stable code clients can branch on
func CodedError(statusCode int, code, err string) Response {
	res := Error(statusCode, err)
	res.Code = code
	return res
}

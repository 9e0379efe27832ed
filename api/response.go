package api

// ResponseHeader and ResponseEnvelope form the wire envelope for machine
// callers: {"header":{"status":...},"body":{...}}.
type ResponseHeader struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

type ResponseEnvelope struct {
	Header ResponseHeader `json:"header"`
	Body   any            `json:"body"`
}

type ValidationErrorBody struct {
	Message string                       `json:"message"`
	Details map[string]map[string]string `json:"details,omitempty"`
}

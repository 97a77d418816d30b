package sanity

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the Sanity API.
type APIError struct {
	StatusCode  int    `json:"statusCode"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("sanity: %d %s: %s", e.StatusCode, e.Type, e.Description)
	}
	return fmt.Sprintf("sanity: %d %s", e.StatusCode, e.Description)
}

// MarshalJSON keeps the error's details when it is reported back to a client.
func (e *APIError) MarshalJSON() ([]byte, error) {
	type apiError APIError
	return json.Marshal((*apiError)(e))
}

// Sanity reports errors either as {"error": {"description", "type"}} or as
// {"error": "Unauthorized", "message": "..."}.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type errorDetail struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		var detail errorDetail
		var kind string
		switch {
		case json.Unmarshal(eb.Error, &detail) == nil:
			apiErr.Type = detail.Type
			apiErr.Description = detail.Description
		case json.Unmarshal(eb.Error, &kind) == nil:
			apiErr.Type = kind
			apiErr.Description = eb.Message
		default:
			apiErr.Description = eb.Message
		}
	}

	if apiErr.Description == "" {
		apiErr.Description = http.StatusText(status)
	}
	return apiErr
}

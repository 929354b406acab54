package httpresp

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func OK(c *gin.Context, data any) {
	c.JSON(200, data)
}

func List[T any](c *gin.Context, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(200, ListResponse[T]{
		Data:  data,
		Total: len(data),
	})
}

// envelopeKeys are the only members an API envelope carries.
var envelopeKeys = map[string]bool{
	"status":     true,
	"data":       true,
	"message":    true,
	"timestamp":  true,
	"meta":       true,
	"pagination": true,
}

var envelopeStatuses = map[string]bool{
	"success": true,
	"error":   true,
	"pending": true,
}

// Unwrap strips the API envelope {"status": ..., "data": ...} and returns the
// raw data member. Any other payload is returned unchanged. An appointment
// also has "status" and "data" (its date), so an object is only an envelope
// when every key is an envelope key and status is an envelope status.
func Unwrap(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return body
	}

	data, hasData := envelope["data"]
	rawStatus, hasStatus := envelope["status"]
	if !hasData || !hasStatus {
		return body
	}
	for k := range envelope {
		if !envelopeKeys[k] {
			return body
		}
	}
	var status string
	if err := json.Unmarshal(rawStatus, &status); err != nil || !envelopeStatuses[status] {
		return body
	}
	return data
}

// Decode unwraps body and unmarshals it into out.
func Decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	payload := Unwrap(body)
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

package services

import (
	"bytes"
	"encoding/json"
)

// toJSONMap converts v into the generic map shape stored in jsonb columns.
// Values that do not encode to a JSON object yield nil.
func toJSONMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// jsonEqual compares two values by their canonical JSON encoding
func jsonEqual(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

package utils

import (
	"encoding/json"
)

// ConvertJSON re-shapes src into T through its JSON form, e.g. struct to map.
func ConvertJSON[T any](src any) (T, error) {
	var out T
	raw, err := json.Marshal(src)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

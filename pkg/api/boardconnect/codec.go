package boardconnect

import (
	"encoding/json"
)

// Codec marshals board messages as plain JSON. It registers under the
// name "json", replacing Connect's protojson codec for these handlers.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Normalize converts any of the provider's observed response envelopes into
// a flat property list. The provider returns, depending on endpoint and
// plan, a bare array, an object wrapping the array under "properties" or
// "data", or a single property object.
func Normalize(raw []byte) ([]Property, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		return decodeElements(elements)
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		for _, key := range []string{"properties", "data"} {
			nested, ok := envelope[key]
			if !ok {
				continue
			}
			var elements []json.RawMessage
			if err := json.Unmarshal(nested, &elements); err != nil {
				return nil, fmt.Errorf("%w: %q is not an array", ErrMalformedEnvelope, key)
			}
			return decodeElements(elements)
		}
		// No known wrapper key: the object is a single property.
		return decodeElements([]json.RawMessage{trimmed})
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrMalformedEnvelope, trimmed[0])
	}
}

func decodeElements(elements []json.RawMessage) ([]Property, error) {
	properties := make([]Property, 0, len(elements))
	for _, element := range elements {
		var p Property
		if err := json.Unmarshal(element, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		if err := json.Unmarshal(element, &p.Raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		properties = append(properties, p)
	}
	return properties, nil
}

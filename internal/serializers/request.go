package serializers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// ErrMalformedBody is returned when a request body cannot be read as an object.
var ErrMalformedBody = errors.New("malformed request body")

const maxBodyBytes = 1 << 20

// ReadFields reads a JSON object or form-encoded body into raw JSON values
// keyed by field name. Form values become JSON strings. An empty body yields
// an empty map.
func ReadFields(r *http.Request) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if r.Body == nil {
		return fields, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		for key, values := range r.PostForm {
			if len(values) == 0 {
				continue
			}
			encoded, err := json.Marshal(values[0])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
			}
			fields[key] = encoded
		}
		return fields, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if len(body) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: JSON parse error - %v", ErrMalformedBody, err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	return fields, nil
}

// DecodeInto re-encodes fields and decodes them into dst, which lets the
// typed payloads share ReadFields' JSON and form handling.
func DecodeInto(fields map[string]json.RawMessage, dst interface{}) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

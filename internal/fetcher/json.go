package fetcher

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeArray streams a JSON array from r, decoding one element at a time so
// large catalog responses never need a second in-memory copy.
func DecodeArray[T any](r io.Reader) ([]T, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, eris.Wrap(err, "json: read array start")
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, eris.Errorf("json: expected array, got %v", tok)
	}

	var out []T
	for dec.More() {
		var elem T
		if err := dec.Decode(&elem); err != nil {
			return nil, eris.Wrap(err, "json: decode element")
		}
		out = append(out, elem)
	}

	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(err, "json: read array end")
	}
	return out, nil
}

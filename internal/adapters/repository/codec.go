package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"github.com/okian/seasonmatch/internal/domain/model"
)

// encode stores candidates as snappy compressed JSON.
func encode(candidates []model.Candidate) ([]byte, error) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// decode reverses encode. Numbers in records are kept as json.Number so
// they parse exactly as they did when fetched.
func decode(payload []byte) ([]model.Candidate, error) {
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out []model.Candidate
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return out, nil
}

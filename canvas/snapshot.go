package canvas

import (
	"encoding/json"
	"fmt"
)

// Snapshot is an immutable serialized view of a surface: dimensions,
// background fill and the full object list in z-order (first = bottom).
// A snapshot round-trips losslessly through Encode and DecodeSnapshot.
type Snapshot struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Background string    `json:"background"`
	Objects    []*Object `json:"objects"`
}

// Encode serializes the snapshot as a JSON tree.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses and validates snapshot data. The returned snapshot
// is fully validated: every object has a known kind and the geometry its
// kind requires. On any failure a *DeserializationError is returned and no
// partial result is produced.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &DeserializationError{Index: -1, Err: err}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks dimensions and every object in the snapshot.
func (s *Snapshot) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return &DeserializationError{Index: -1, Err: fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)}
	}
	for i, obj := range s.Objects {
		if obj == nil {
			return &DeserializationError{Index: i, Err: fmt.Errorf("object is null")}
		}
		if err := obj.Validate(); err != nil {
			return &DeserializationError{Index: i, Kind: obj.Kind, Err: err}
		}
	}
	return nil
}

// Clone returns a deep copy; mutating the copy never affects the original.
func (s *Snapshot) Clone() *Snapshot {
	dup := &Snapshot{
		Width:      s.Width,
		Height:     s.Height,
		Background: s.Background,
		Objects:    make([]*Object, len(s.Objects)),
	}
	for i, obj := range s.Objects {
		dup.Objects[i] = obj.Clone()
	}
	return dup
}

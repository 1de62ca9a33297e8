package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrNoHistory is returned by [StateBlob.CurrentIndex] for a blob without
// history.
var ErrNoHistory = errors.New(`engine: no history state`)

// Keys of the blob object.
const (
	stateKeyHistory    = `history`
	stateKeyScrollData = `scrolldata`
	stateKeyFormData   = `formdata`
)

type (
	// StateBlob is the serialised state of an engine session, including its
	// back/forward history, as handed to [Session.RestoreState]. It is a JSON
	// object, opaque except for the history list, which it exposes through
	// [HistoryList].
	//
	// The zero value is an empty blob.
	StateBlob struct {
		state map[string]any
	}

	// StateUpdate is an incremental state change reported by an engine. Each
	// non-nil field replaces the corresponding part of the blob.
	StateUpdate struct {
		HistoryChange json.RawMessage `json:"historychange,omitempty"`
		Scroll        json.RawMessage `json:"scroll,omitempty"`
		FormData      json.RawMessage `json:"formdata,omitempty"`
	}

	stateHistory struct {
		Index   int           `json:"index"`
		FromIdx int           `json:"fromIdx"`
		Entries []HistoryItem `json:"entries"`
	}
)

var _ HistoryList = (*StateBlob)(nil)

// ParseStateBlob decodes the string form of a blob, as produced by
// [StateBlob.String]. It returns nil if s is not a JSON object.
func ParseStateBlob(s string) *StateBlob {
	state, err := decodeObject([]byte(s))
	if err != nil || state == nil {
		return nil
	}
	return &StateBlob{state: state}
}

func decodeObject(b []byte) (map[string]any, error) {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var state map[string]any
	if err := d.Decode(&state); err != nil {
		return nil, err
	}
	if d.More() {
		return nil, errors.New(`engine: trailing data after state object`)
	}
	return state, nil
}

func decodeValue(b json.RawMessage) (any, error) {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// String encodes the blob, the inverse of [ParseStateBlob]. Keys are sorted.
func (x *StateBlob) String() string {
	b, err := x.MarshalJSON()
	if err != nil {
		// only reachable with unsupported values in the map, which decoding
		// never produces
		return `{}`
	}
	return string(b)
}

func (x *StateBlob) MarshalJSON() ([]byte, error) {
	if x == nil || x.state == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(x.state)
}

func (x *StateBlob) UnmarshalJSON(b []byte) error {
	state, err := decodeObject(b)
	if err != nil {
		return fmt.Errorf(`engine: invalid state blob: %w`, err)
	}
	x.state = state
	return nil
}

// IsEmpty reports whether the blob holds no state.
func (x *StateBlob) IsEmpty() bool {
	return x == nil || len(x.state) == 0
}

// Clone returns a deep copy of the blob.
func (x *StateBlob) Clone() *StateBlob {
	if x == nil {
		return nil
	}
	c := ParseStateBlob(x.String())
	if c == nil {
		return &StateBlob{}
	}
	return c
}

// Equal reports whether both blobs hold the same state. Nil equals empty.
func (x *StateBlob) Equal(other *StateBlob) bool {
	if x.IsEmpty() || other.IsEmpty() {
		return x.IsEmpty() == other.IsEmpty()
	}
	return reflect.DeepEqual(x.state, other.state)
}

// Update merges an incremental change into the blob.
func (x *StateBlob) Update(update StateUpdate) error {
	fields := [...]struct {
		key string
		raw json.RawMessage
	}{
		{stateKeyHistory, update.HistoryChange},
		{stateKeyScrollData, update.Scroll},
		{stateKeyFormData, update.FormData},
	}
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		v, err := decodeValue(f.raw)
		if err != nil {
			return fmt.Errorf(`engine: invalid %s update: %w`, f.key, err)
		}
		values[f.key] = v
	}
	if len(values) == 0 {
		return errors.New(`engine: state update has no data`)
	}
	if x.state == nil {
		x.state = make(map[string]any, len(values))
	}
	for k, v := range values {
		x.state[k] = v
	}
	return nil
}

func (x *StateBlob) history() (*stateHistory, bool) {
	if x == nil {
		return nil, false
	}
	v, ok := x.state[stateKeyHistory]
	if !ok || v == nil {
		return nil, false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var h stateHistory
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, false
	}
	return &h, true
}

// Len returns the number of history entries.
func (x *StateBlob) Len() int {
	h, ok := x.history()
	if !ok {
		return 0
	}
	return len(h.Entries)
}

// Item returns the history entry at index i.
func (x *StateBlob) Item(i int) (HistoryItem, bool) {
	h, ok := x.history()
	if !ok || i < 0 || i >= len(h.Entries) {
		return HistoryItem{}, false
	}
	return h.Entries[i], true
}

// Items returns every history entry, oldest first.
func (x *StateBlob) Items() []HistoryItem {
	h, ok := x.history()
	if !ok {
		return nil
	}
	return h.Entries
}

// CurrentIndex returns the index of the current history entry.
func (x *StateBlob) CurrentIndex() (int, error) {
	h, ok := x.history()
	if !ok {
		return 0, ErrNoHistory
	}
	return h.Index + h.FromIdx, nil
}

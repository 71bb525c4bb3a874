package engine

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// record is the on-disk log entry: a tagged union of Set(key, value) and
// Remove(key). Exactly one of the two fields is non-nil; it marshals as a
// single-key JSON object, e.g. {"Set":{"key":"k","value":"v"}}.
type record struct {
	Set    *setFields    `json:"Set,omitempty"`
	Remove *removeFields `json:"Remove,omitempty"`
}

type setFields struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type removeFields struct {
	Key string `json:"key"`
}

func setRecord(key, value string) record {
	return record{Set: &setFields{Key: key, Value: value}}
}

func removeRecord(key string) record {
	return record{Remove: &removeFields{Key: key}}
}

// key returns the key named by whichever variant is present.
func (r record) key() string {
	if r.Set != nil {
		return r.Set.Key
	}
	return r.Remove.Key
}

func (r record) isSet() bool { return r.Set != nil }

func (r record) marshal() ([]byte, error) {
	return json.Marshal(r)
}

func unmarshalRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, err
	}
	if r.Set == nil && r.Remove == nil {
		return record{}, fmt.Errorf("engine: record has neither Set nor Remove variant")
	}
	return r, nil
}

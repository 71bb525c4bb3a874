// Package wire defines the request/response shapes exchanged between kvs
// clients and servers, and the self-delimiting JSON codec used to frame
// them on the wire.
package wire

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Request is one of Get, Set or Remove. Exactly one of the embedded
// pointers is non-nil; it marshals to a single-key JSON object whose key
// names the variant, e.g. {"Set":{"key":"k","value":"v"}}.
type Request struct {
	Get    *GetArgs    `json:"Get,omitempty"`
	Set    *SetArgs    `json:"Set,omitempty"`
	Remove *RemoveArgs `json:"Remove,omitempty"`
}

// GetArgs carries the key of a Get request.
type GetArgs struct {
	Key string `json:"key"`
}

// SetArgs carries the key/value pair of a Set request.
type SetArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RemoveArgs carries the key of a Remove request.
type RemoveArgs struct {
	Key string `json:"key"`
}

// NewGet builds a Get request.
func NewGet(key string) Request { return Request{Get: &GetArgs{Key: key}} }

// NewSet builds a Set request.
func NewSet(key, value string) Request { return Request{Set: &SetArgs{Key: key, Value: value}} }

// NewRemove builds a Remove request.
func NewRemove(key string) Request { return Request{Remove: &RemoveArgs{Key: key}} }

// Validate reports an error if zero or more than one variant is set, which
// can only happen on a malformed wire object.
func (r Request) Validate() error {
	n := 0
	if r.Get != nil {
		n++
	}
	if r.Set != nil {
		n++
	}
	if r.Remove != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("wire: request must have exactly one variant, got %d", n)
	}
	return nil
}

// Response is either Ok(optional value) or Err(message). Ok is present
// (possibly with a nil Value) for successful requests; Err carries the
// server-side error message otherwise.
type Response struct {
	ok      bool
	value   *string
	errMsg  string
	present bool
}

// OkEmpty builds a successful response carrying no value (set/remove).
func OkEmpty() Response { return Response{ok: true, present: true} }

// OkValue builds a successful response carrying a value (get hit).
func OkValue(v string) Response { return Response{ok: true, value: &v, present: true} }

// OkOptional builds a successful response from an optional value (get).
func OkOptional(v string, found bool) Response {
	if !found {
		return OkEmpty()
	}
	return OkValue(v)
}

// Err builds an error response carrying msg.
func Err(msg string) Response { return Response{ok: false, errMsg: msg, present: true} }

// IsOk reports whether the response is the Ok variant.
func (r Response) IsOk() bool { return r.present && r.ok }

// Value returns the Ok payload, if any.
func (r Response) Value() (string, bool) {
	if r.value == nil {
		return "", false
	}
	return *r.value, true
}

// ErrMessage returns the Err payload.
func (r Response) ErrMessage() string { return r.errMsg }

// MarshalJSON renders the response in the externally-tagged shape described
// in the wire protocol: {"Ok":null}, {"Ok":"value"} or {"Err":"message"}.
func (r Response) MarshalJSON() ([]byte, error) {
	if !r.present {
		return nil, fmt.Errorf("wire: cannot marshal zero-value Response")
	}
	if r.ok {
		return json.Marshal(struct {
			Ok *string `json:"Ok"`
		}{r.value})
	}
	msg := r.errMsg
	return json.Marshal(struct {
		Err *string `json:"Err"`
	}{&msg})
}

// UnmarshalJSON parses the externally-tagged wire shape back into a
// Response.
func (r *Response) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if v, ok := probe["Ok"]; ok {
		var value *string
		if string(v) != "null" {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			value = &s
		}
		*r = Response{ok: true, value: value, present: true}
		return nil
	}

	if v, ok := probe["Err"]; ok {
		var msg string
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		*r = Response{ok: false, errMsg: msg, present: true}
		return nil
	}

	return fmt.Errorf("wire: response object must have exactly one of Ok, Err")
}

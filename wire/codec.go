package wire

import (
	"io"

	json "github.com/goccy/go-json"
)

// Decoder reads a stream of back-to-back JSON objects with no length
// prefix, one Decode call per object. The underlying go-json decoder may
// read past the end of the current object; bytes it has read that belong
// to a following object stay in its buffer and are used by the next call.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r in a streaming request/response decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// DecodeRequest reads exactly one Request object. Returns io.EOF when the
// underlying stream is exhausted between objects.
func (d *Decoder) DecodeRequest() (Request, error) {
	var req Request
	if err := d.dec.Decode(&req); err != nil {
		return Request{}, err
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// DecodeResponse reads exactly one Response object.
func (d *Decoder) DecodeResponse() (Response, error) {
	var resp Response
	if err := d.dec.Decode(&resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Encoder writes Requests/Responses as back-to-back JSON objects with no
// length prefix. Callers must flush the underlying writer themselves if it
// is buffered.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w in a request/response encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// EncodeRequest writes one Request object.
func (e *Encoder) EncodeRequest(r Request) error {
	return json.NewEncoder(e.w).Encode(r)
}

// EncodeResponse writes one Response object.
func (e *Encoder) EncodeResponse(r Response) error {
	return json.NewEncoder(e.w).Encode(r)
}

package wire

import (
	"bytes"
	"strings"
	"testing"
)

func TestRequestWireShape(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"get", NewGet("k"), `{"Get":{"key":"k"}}`},
		{"set", NewSet("k", "v"), `{"Set":{"key":"k","value":"v"}}`},
		{"remove", NewRemove("k"), `{"Remove":{"key":"k"}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewEncoder(&buf).EncodeRequest(c.req); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got := strings.TrimSpace(buf.String())
			if got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestResponseWireShape(t *testing.T) {
	cases := []struct {
		name string
		resp Response
		want string
	}{
		{"ok-empty", OkEmpty(), `{"Ok":null}`},
		{"ok-value", OkValue("v"), `{"Ok":"v"}`},
		{"err", Err("Key not found"), `{"Err":"Key not found"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewEncoder(&buf).EncodeResponse(c.resp); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got := strings.TrimSpace(buf.String())
			if got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestStreamingDecodeBackToBack(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	want := []Request{NewSet("x", "y"), NewGet("x"), NewRemove("z")}
	for _, r := range want {
		if err := enc.EncodeRequest(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i, w := range want {
		got, err := dec.DecodeRequest()
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if got.Get == nil && w.Get != nil || got.Set == nil && w.Set != nil || got.Remove == nil && w.Remove != nil {
			t.Fatalf("decode %d: variant mismatch: got %+v want %+v", i, got, w)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	for _, resp := range []Response{OkEmpty(), OkValue("hello"), Err("boom")} {
		var buf bytes.Buffer
		if err := NewEncoder(&buf).EncodeResponse(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := NewDecoder(&buf).DecodeResponse()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.IsOk() != resp.IsOk() {
			t.Fatalf("IsOk mismatch: got %v want %v", got.IsOk(), resp.IsOk())
		}
		gv, gok := got.Value()
		wv, wok := resp.Value()
		if gok != wok || gv != wv {
			t.Fatalf("value mismatch: got (%q,%v) want (%q,%v)", gv, gok, wv, wok)
		}
		if got.ErrMessage() != resp.ErrMessage() {
			t.Fatalf("err mismatch: got %q want %q", got.ErrMessage(), resp.ErrMessage())
		}
	}
}

func TestRequestValidateRejectsEmptyObject(t *testing.T) {
	var req Request
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for request with no variant set")
	}
}

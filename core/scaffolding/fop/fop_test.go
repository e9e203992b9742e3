package fop_test

import (
	"errors"
	"testing"

	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
)

func TestParseOrder(t *testing.T) {
	fields := map[string]string{"created_at": "created_at", "title": "title"}
	def := fop.NewBy("created_at", fop.DESC)

	tests := []struct {
		in      string
		want    fop.By
		wantErr bool
	}{
		{"", def, false},
		{"title", fop.By{Field: "title", Direction: fop.ASC}, false},
		{"-created_at", fop.By{Field: "created_at", Direction: fop.DESC}, false},
		{"title,desc", fop.By{Field: "title", Direction: fop.DESC}, false},
		{"title,sideways", fop.By{}, true},
		{"password_hash", fop.By{}, true},
	}

	for _, tt := range tests {
		got, err := fop.ParseOrder(fields, tt.in, def)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := fop.Cursor[string, string]{OrderValue: "2025-01-02", PK: "abc"}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	c, err := fop.DecodeCursor[string, string](token)
	if err != nil || c.PK != "abc" || c.OrderValue != "2025-01-02" {
		t.Fatalf("decode: %+v %v", c, err)
	}

	if c, err := fop.DecodeCursor[string, string](""); c != nil || err != nil {
		t.Fatalf("empty token: %+v %v", c, err)
	}
	if _, err := fop.DecodeCursor[string, string]("%%%"); !errors.Is(err, fop.ErrInvalidCursor) {
		t.Fatal("expected error for garbage")
	}
}

func TestParsePageStringCursor(t *testing.T) {
	p, err := fop.ParsePageStringCursor("", "abc")
	if err != nil || p.Limit != fop.DefaultPageLimit || p.Cursor != "abc" {
		t.Fatalf("defaults: %+v %v", p, err)
	}
	for _, bad := range []string{"0", "101", "x"} {
		if _, err := fop.ParsePageStringCursor(bad, ""); !errors.Is(err, fop.ErrInvalidPageLimit) {
			t.Errorf("limit %q: expected error", bad)
		}
	}
}

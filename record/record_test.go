package record

import (
	"testing"

	"readfile/types"
)

func TestKeyStrategies(t *testing.T) {
	line := types.Line{Number: 7, Text: `{"id":42,"user":{"name":"ada"},"ok":true}`}

	tests := []struct {
		strategy string
		want     string
	}{
		{"", line.Text},
		{"line", line.Text},
		{"LINE", line.Text},
		{"none", ""},
		{"sequence", "7"},
		{"jsonpath:$.id", "42"},
		{"jsonpath:$.user.name", "ada"},
		{"jsonpath: $.ok", "true"},
		{"jsonpath:$.user", `{"name":"ada"}`},
	}

	for _, tc := range tests {
		t.Run(tc.strategy, func(t *testing.T) {
			k, err := ParseKeyStrategy(tc.strategy)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got, err := k(line)
			if err != nil {
				t.Fatalf("key: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHashAndUUIDKeys(t *testing.T) {
	hash, _ := ParseKeyStrategy("hash")
	a, _ := hash(types.Line{Text: "abc"})
	if a != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected sha256 %q", a)
	}

	id, _ := ParseKeyStrategy("uuid")
	x, _ := id(types.Line{Text: "abc"})
	y, _ := id(types.Line{Text: "abc"})
	if x == "" || x == y {
		t.Fatalf("expected distinct uuids, got %q %q", x, y)
	}
}

func TestUnknownStrategy(t *testing.T) {
	for _, s := range []string{"random", "jsonpath:"} {
		if _, err := ParseKeyStrategy(s); !types.IsKind(err, types.KindConfig) {
			t.Fatalf("%q: expected config error, got %v", s, err)
		}
	}
}

func TestJSONPathOnPlainText(t *testing.T) {
	k, err := ParseKeyStrategy("jsonpath:$.id")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := k(types.Line{Number: 3, Text: "not json"}); err == nil {
		t.Fatalf("expected error for non-JSON line")
	}
}

func TestMapperDefault(t *testing.T) {
	k, _ := ParseKeyStrategy("line")
	m := NewMapper(k)

	r, err := m.Map(types.Line{Number: 12, Source: "in.txt", Text: "hello"}, "c-1", "abc")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if r.Key != "hello" || r.Value != "hello" {
		t.Fatalf("expected key and value to be the line, got %+v", r)
	}
	if r.Headers[HeaderLine] != "12" || r.Headers[HeaderChunkID] != "c-1" || r.Headers[HeaderSource] != "in.txt" {
		t.Fatalf("unexpected headers %v", r.Headers)
	}
	if r.Time.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestMapAllStopsOnKeyError(t *testing.T) {
	k, _ := ParseKeyStrategy("jsonpath:$.id")
	m := NewMapper(k)

	_, err := m.MapAll([]types.Line{{Number: 1, Text: `{"id":1}`}, {Number: 2, Text: "x"}}, "c", "h")
	if !types.IsKind(err, types.KindPublish) {
		t.Fatalf("expected publish error, got %v", err)
	}

	recs, err := m.MapAll([]types.Line{{Number: 1, Text: `{"id":"a"}`}, {Number: 2, Text: `{"id":"b"}`}}, "c", "h")
	if err != nil {
		t.Fatalf("map all: %v", err)
	}
	if len(recs) != 2 || recs[0].Key != "a" || recs[1].Key != "b" {
		t.Fatalf("unexpected records %+v", recs)
	}
}

package docpath

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wilhelmsk/core/internal/domain/entities"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		sep     string
		want    string
		wantErr bool
	}{
		{name: "url segments", raw: "vessels/self/tanks/0/level", sep: "/", want: "vessels.self.tanks.0.level"},
		{name: "trailing slash", raw: "a/b/", sep: "/", want: "a.b"},
		{name: "single segment", raw: "depth", sep: "/", want: "depth"},
		{name: "urn context", raw: "vessels/urn:mrn:imo:mmsi:230099999/name", sep: "/", want: "vessels.urn:mrn:imo:mmsi:230099999.name"},
		{name: "dotted", raw: "a.b.c", sep: ".", want: "a.b.c"},
		{name: "empty", raw: "", sep: "/", wantErr: true},
		{name: "double slash", raw: "a//b", sep: "/", wantErr: true},
		{name: "leading slash", raw: "/a/b", sep: "/", wantErr: true},
		{name: "wildcard", raw: "a/*/b", sep: "/", wantErr: true},
		{name: "modifier", raw: "a/@this", sep: "/", wantErr: true},
		{name: "query", raw: "a/#(x)", sep: "/", wantErr: true},
		{name: "force key", raw: "a/:1", sep: "/", wantErr: true},
		{name: "negative index", raw: "a/-1", sep: "/", wantErr: true},
		{name: "negative index dotted", raw: "tanks.-12.level", sep: ".", wantErr: true},
		{name: "dash in key", raw: "a/-x/b-1", sep: "/", want: "a.-x.b-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.sep)
			if tt.wantErr {
				if !errors.Is(err, entities.ErrInvalidPath) {
					t.Fatalf("Normalize(%q) error = %v, want ErrInvalidPath", tt.raw, err)
				}
				if !errors.Is(err, entities.ErrInvalidRequest) {
					t.Fatalf("ErrInvalidPath should wrap ErrInvalidRequest")
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func decode(t *testing.T, raw []byte) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("invalid JSON %s: %v", raw, err)
	}
	return v
}

func TestSetGetUnset(t *testing.T) {
	doc := []byte(`{}`)

	doc, err := Set(doc, "a.b.c", json.RawMessage(`42`))
	if err != nil {
		t.Fatalf("Set a.b.c: %v", err)
	}
	doc, err = Set(doc, "a.b.d", json.RawMessage(`{"x":"y"}`))
	if err != nil {
		t.Fatalf("Set a.b.d: %v", err)
	}

	got, ok := Get(doc, "a.b.c")
	if !ok {
		t.Fatalf("Get a.b.c: not found in %s", doc)
	}
	if diff := cmp.Diff(float64(42), decode(t, got)); diff != "" {
		t.Errorf("Get a.b.c mismatch (-want +got):\n%s", diff)
	}

	doc, err = Unset(doc, "a.b.c")
	if err != nil {
		t.Fatalf("Unset a.b.c: %v", err)
	}
	if _, ok := Get(doc, "a.b.c"); ok {
		t.Errorf("a.b.c still present after Unset: %s", doc)
	}

	sibling, ok := Get(doc, "a.b.d")
	if !ok {
		t.Fatalf("sibling a.b.d removed: %s", doc)
	}
	want := map[string]interface{}{"x": "y"}
	if diff := cmp.Diff(want, decode(t, sibling)); diff != "" {
		t.Errorf("sibling changed (-want +got):\n%s", diff)
	}
}

func TestSetNumericSegment(t *testing.T) {
	doc, err := Set([]byte(`{}`), "vessels.self.tanks.0.level", json.RawMessage(`0.75`))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := Get(doc, "vessels.self.tanks.0.level")
	if !ok {
		t.Fatalf("value not found in %s", doc)
	}
	if string(got) != "0.75" {
		t.Errorf("Get = %s, want 0.75", got)
	}
}

func TestSetOverwrites(t *testing.T) {
	doc := []byte(`{"a":{"b":1}}`)
	doc, err := Set(doc, "a.b", json.RawMessage(`"two"`))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	want := map[string]interface{}{"a": map[string]interface{}{"b": "two"}}
	if diff := cmp.Diff(want, decode(t, doc)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSetRejectsInvalidValue(t *testing.T) {
	_, err := Set([]byte(`{}`), "a", json.RawMessage(`{not json`))
	if !errors.Is(err, entities.ErrInvalidRequest) {
		t.Fatalf("Set invalid value error = %v, want ErrInvalidRequest", err)
	}
}

func TestUnsetMissing(t *testing.T) {
	doc := []byte(`{"a":{"b":1}}`)
	_, err := Unset(doc, "a.c")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("Unset missing error = %v, want ErrNotFound", err)
	}
	if string(doc) != `{"a":{"b":1}}` {
		t.Errorf("document mutated: %s", doc)
	}
}

func TestGetMissing(t *testing.T) {
	if _, ok := Get([]byte(`{"a":1}`), "a.b.c"); ok {
		t.Error("Get through a scalar should report not found")
	}
}

func TestUnsetArrayElementKeepsSiblings(t *testing.T) {
	doc := []byte(`{}`)
	var err error
	for _, step := range []struct {
		path  string
		value string
	}{
		{"a.b.0", `"x"`},
		{"a.b.1", `"y"`},
	} {
		doc, err = Set(doc, step.path, json.RawMessage(step.value))
		if err != nil {
			t.Fatalf("Set %s: %v", step.path, err)
		}
	}

	doc, err = Unset(doc, "a.b.0")
	if err != nil {
		t.Fatalf("Unset: %v", err)
	}

	got, ok := Get(doc, "a.b.1")
	if !ok || string(got) != `"y"` {
		t.Errorf("a.b.1 = %s, %v; want \"y\" (document %s)", got, ok, doc)
	}
	want := map[string]interface{}{
		"a": map[string]interface{}{"b": []interface{}{nil, "y"}},
	}
	if diff := cmp.Diff(want, decode(t, doc)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestUnsetNumericObjectKey(t *testing.T) {
	doc, err := Unset([]byte(`{"a":{"0":1,"1":2}}`), "a.0")
	if err != nil {
		t.Fatalf("Unset: %v", err)
	}
	want := map[string]interface{}{"a": map[string]interface{}{"1": float64(2)}}
	if diff := cmp.Diff(want, decode(t, doc)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSetIndexBounds(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		path    string
		wantErr bool
	}{
		{name: "create first element", doc: `{}`, path: "a.0"},
		{name: "append", doc: `{"a":[1]}`, path: "a.1"},
		{name: "overwrite", doc: `{"a":[1,2]}`, path: "a.0"},
		{name: "numeric object key", doc: `{"a":{"7":1}}`, path: "a.20000000"},
		{name: "root numeric key", doc: `{}`, path: "20000000"},
		{name: "gap in existing array", doc: `{"a":[1]}`, path: "a.2", wantErr: true},
		{name: "gap in new array", doc: `{}`, path: "a.20000000", wantErr: true},
		{name: "nested gap", doc: `{}`, path: "a.0.b.5", wantErr: true},
		{name: "overflowing index", doc: `{}`, path: "a.99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Set([]byte(tt.doc), tt.path, json.RawMessage(`1`))
			if tt.wantErr {
				if !errors.Is(err, entities.ErrInvalidPath) {
					t.Fatalf("Set %s error = %v, want ErrInvalidPath", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set %s: %v", tt.path, err)
			}
			if got, ok := Get(out, tt.path); !ok || string(got) != "1" {
				t.Errorf("Get %s after Set = %s, %v", tt.path, got, ok)
			}
		})
	}
}

package axon

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestValue(t *testing.T) {
	t.Run("variants", func(t *testing.T) {
		if s, ok := StringValue("x").Str(); !ok || s != "x" {
			t.Errorf("expected string x, got %q (ok=%v)", s, ok)
		}
		if i, ok := IntValue(7).Int(); !ok || i != 7 {
			t.Errorf("expected integer 7, got %d (ok=%v)", i, ok)
		}
		if f, ok := FloatValue(1.5).Float(); !ok || f != 1.5 {
			t.Errorf("expected float 1.5, got %v (ok=%v)", f, ok)
		}
		if b, ok := BoolValue(true).Bool(); !ok || !b {
			t.Errorf("expected boolean true, got %v (ok=%v)", b, ok)
		}
	})

	t.Run("wrong variant", func(t *testing.T) {
		if _, ok := IntValue(1).Str(); ok {
			t.Error("integer should not report a string")
		}
		if _, ok := StringValue("1").Int(); ok {
			t.Error("string should not report an integer")
		}
	})

	t.Run("zero value is empty string", func(t *testing.T) {
		var v Value
		if v.Kind() != KindString {
			t.Errorf("expected KindString, got %v", v.Kind())
		}
	})

	t.Run("json", func(t *testing.T) {
		for _, tc := range []struct {
			value Value
			want  string
		}{
			{StringValue("a"), `"a"`},
			{IntValue(3), `3`},
			{FloatValue(2.5), `2.5`},
			{BoolValue(false), `false`},
		} {
			got, err := json.Marshal(tc.value)
			if err != nil {
				t.Fatalf("marshal %v: %v", tc.value, err)
			}
			if string(got) != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		}
	})

	t.Run("unmarshal rejects null", func(t *testing.T) {
		var v Value
		if err := json.Unmarshal([]byte("null"), &v); err == nil {
			t.Error("expected error for null")
		}
	})
}

func TestParams(t *testing.T) {
	t.Run("insertion order", func(t *testing.T) {
		p := NewParams()
		p.Set("zeta", IntValue(1))
		p.Set("alpha", IntValue(2))
		p.Set("mid", IntValue(3))

		want := []string{"zeta", "alpha", "mid"}
		if !slices.Equal(p.Keys(), want) {
			t.Errorf("expected keys %v, got %v", want, p.Keys())
		}
	})

	t.Run("set replaces in place", func(t *testing.T) {
		p := NewParams()
		p.Set("a", IntValue(1))
		p.Set("b", IntValue(2))
		p.Set("a", StringValue("again"))

		if p.Len() != 2 {
			t.Fatalf("expected 2 keys, got %d", p.Len())
		}
		if p.Keys()[0] != "a" {
			t.Errorf("replaced key should keep its position, got %v", p.Keys())
		}
		if s, _ := mustGet(t, p, "a").Str(); s != "again" {
			t.Errorf("expected replaced value, got %q", s)
		}
	})

	t.Run("zero value usable", func(t *testing.T) {
		var p Params
		p.Set("k", BoolValue(true))
		if !p.Has("k") {
			t.Error("expected key after Set on zero value")
		}
	})

	t.Run("nil params", func(t *testing.T) {
		var p *Params
		if p.Len() != 0 || p.Has("x") || p.Keys() != nil {
			t.Error("nil params should behave as empty")
		}
	})

	t.Run("marshal keeps order", func(t *testing.T) {
		p := NewParams()
		p.Set("b", IntValue(1))
		p.Set("a", StringValue("x"))
		got, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(got) != `{"b":1,"a":"x"}` {
			t.Errorf("unexpected encoding %s", got)
		}
	})

	t.Run("unmarshal keeps order and kinds", func(t *testing.T) {
		var p Params
		err := json.Unmarshal([]byte(`{"z": 1, "y": 1.5, "x": "s", "w": true, "v": [1, 2]}`), &p)
		if err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !slices.Equal(p.Keys(), []string{"z", "y", "x", "w", "v"}) {
			t.Errorf("unexpected key order %v", p.Keys())
		}
		wantKinds := []ValueKind{KindInteger, KindFloat, KindString, KindBoolean, KindString}
		for i, k := range p.Keys() {
			if got := mustGet(t, &p, k).Kind(); got != wantKinds[i] {
				t.Errorf("key %s: expected %v, got %v", k, wantKinds[i], got)
			}
		}
		if s, _ := mustGet(t, &p, "v").Str(); s != "[1,2]" {
			t.Errorf("nested array should be kept as compact JSON, got %q", s)
		}
	})

	t.Run("equal and clone", func(t *testing.T) {
		p := NewParams()
		p.Set("a", IntValue(1))
		c := p.Clone()
		if !p.Equal(c) {
			t.Error("clone should equal original")
		}
		c.Set("b", IntValue(2))
		if p.Equal(c) || p.Len() != 1 {
			t.Error("clone should be independent")
		}
	})

	t.Run("map", func(t *testing.T) {
		p := NewParams()
		p.Set("n", IntValue(4))
		if p.Map()["n"] != int64(4) {
			t.Errorf("expected int64 4, got %#v", p.Map()["n"])
		}
	})
}

func TestToolCall_String(t *testing.T) {
	p := NewParams()
	p.Set("id", IntValue(7))
	p.Set("name", StringValue("bo"))
	call := ToolCall{Function: "get_user", Parameters: p}

	if got := call.String(); got != `get_user(id=7, name="bo")` {
		t.Errorf("unexpected rendering %s", got)
	}

	t.Run("integral float keeps its kind", func(t *testing.T) {
		p := NewParams()
		p.Set("x", FloatValue(1))
		p.Set("y", FloatValue(1e21))
		p.Set("z", FloatValue(-0.25))
		call := ToolCall{Function: "move", Parameters: p}

		rendered := call.String()
		if rendered != `move(x=1.0, y=1e+21, z=-0.25)` {
			t.Fatalf("unexpected rendering %s", rendered)
		}

		calls, err := ParseBracketedToolCalls("[" + rendered + "]")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		for key, value := range calls[0].Parameters.All() {
			if value.Kind() != KindFloat {
				t.Errorf("expected %s to stay a float, got %s", key, value.Kind())
			}
		}
	})

	encoded, err := json.Marshal(ToolCall{Function: "noop"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(encoded) != `{"function_name":"noop","parameters":{}}` {
		t.Errorf("unexpected encoding %s", encoded)
	}
}

func mustGet(t *testing.T, p *Params, key string) Value {
	t.Helper()
	v, ok := p.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	return v
}

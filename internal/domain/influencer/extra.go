package influencer

import (
	"encoding/json"
	"fmt"
)

type ExtraKind string

const (
	ExtraString ExtraKind = "string"
	ExtraInt    ExtraKind = "int"
	ExtraFloat  ExtraKind = "float"
	ExtraBool   ExtraKind = "bool"
)

// ExtraValue is one provider-specific attribute. Only one of the value fields
// is meaningful, selected by Kind.
type ExtraValue struct {
	Kind ExtraKind `json:"kind"`
	Str  string    `json:"s,omitempty"`
	Int  int64     `json:"i,omitempty"`
	Num  float64   `json:"f,omitempty"`
	Bool bool      `json:"b,omitempty"`
}

type Extra map[string]ExtraValue

func StringValue(v string) ExtraValue { return ExtraValue{Kind: ExtraString, Str: v} }
func IntValue(v int64) ExtraValue     { return ExtraValue{Kind: ExtraInt, Int: v} }
func FloatValue(v float64) ExtraValue { return ExtraValue{Kind: ExtraFloat, Num: v} }
func BoolValue(v bool) ExtraValue     { return ExtraValue{Kind: ExtraBool, Bool: v} }

func (v ExtraValue) String() string {
	switch v.Kind {
	case ExtraString:
		return v.Str
	case ExtraInt:
		return fmt.Sprint(v.Int)
	case ExtraFloat:
		return fmt.Sprint(v.Num)
	case ExtraBool:
		return fmt.Sprint(v.Bool)
	}
	return ""
}

// ExtraFromJSON converts loosely typed provider fields into the closed set.
// Nested objects and arrays are dropped.
func ExtraFromJSON(raw map[string]any) Extra {
	if len(raw) == 0 {
		return nil
	}
	out := make(Extra, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = StringValue(t)
		case bool:
			out[k] = BoolValue(t)
		case float64:
			if t == float64(int64(t)) {
				out[k] = IntValue(int64(t))
			} else {
				out[k] = FloatValue(t)
			}
		case json.Number:
			if i, err := t.Int64(); err == nil {
				out[k] = IntValue(i)
			} else if f, err := t.Float64(); err == nil {
				out[k] = FloatValue(f)
			}
		case int:
			out[k] = IntValue(int64(t))
		case int64:
			out[k] = IntValue(t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

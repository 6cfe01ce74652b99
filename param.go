package rfc

import (
	"encoding/json"
	"strconv"
)

// ParamEncoder is implemented by argument types whose identity depends on a
// side-effect-bearing encoding — typically a value that round-trips through
// plain JSON only with loss of precision. Such values are sent as the
// "serializable" Param sub-variant instead of a bare JSON value.
type ParamEncoder interface {
	MarshalRFCParam() (string, error)
}

// ParamDecoder is the receiving half of ParamEncoder. A provider argument
// type implementing it on a pointer receiver is given the raw string
// carried by a "serializable" Param instead of a plain JSON unmarshal.
type ParamDecoder interface {
	UnmarshalRFCParam(s string) error
}

// Param is either a plain value, encoded verbatim as JSON, or — when the
// originating value implements ParamEncoder — the "serializable"
// sub-variant carrying a string payload.
type Param struct {
	Serializable bool
	Raw          string
	Value        json.RawMessage
}

type serializableWire struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (p Param) MarshalJSON() ([]byte, error) {
	if p.Serializable {
		return json.Marshal(serializableWire{Type: "serializable", Value: p.Raw})
	}
	if p.Value == nil {
		return []byte("null"), nil
	}
	return p.Value, nil
}

func (p *Param) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Type == "serializable" {
		var s string
		if err := json.Unmarshal(probe.Value, &s); err == nil {
			p.Serializable = true
			p.Raw = s
			p.Value = nil
			return nil
		}
	}
	p.Serializable = false
	p.Value = append(json.RawMessage(nil), data...)
	return nil
}

// newParam builds the wire Param for an outbound argument.
func newParam(v any) Param {
	if enc, ok := v.(ParamEncoder); ok {
		if s, err := enc.MarshalRFCParam(); err == nil {
			return Param{Serializable: true, Raw: s}
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Param{Value: json.RawMessage("null")}
	}
	return Param{Value: data}
}

// LosslessInt is a 64-bit integer that always crosses the wire as a decimal
// string, avoiding the precision loss that plain JSON numbers suffer once
// magnitudes exceed what a float64 mantissa can represent exactly.
type LosslessInt int64

func (v LosslessInt) MarshalRFCParam() (string, error) {
	return strconv.FormatInt(int64(v), 10), nil
}

func (v *LosslessInt) UnmarshalRFCParam(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*v = LosslessInt(n)
	return nil
}

// MarshalJSON lets LosslessInt also behave reasonably when it appears
// nested inside an ordinary value rather than as a top-level Param.
func (v LosslessInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(v), 10))
}

func (v *LosslessInt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// fall back to a plain numeric literal
		var n int64
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		*v = LosslessInt(n)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*v = LosslessInt(n)
	return nil
}

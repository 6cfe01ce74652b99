package rfc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecodeFunctionInvoke(t *testing.T) {
	params := []Param{newParam(2), newParam("hi")}
	data, err := encodeFunctionInvoke(7, "math.add", params)
	if err != nil {
		t.Fatalf("encodeFunctionInvoke: %v", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	f, ok := rec.(*FunctionInvoke)
	if !ok {
		t.Fatalf("decodeRecord returned %T, want *FunctionInvoke", rec)
	}
	if f.Uid != 7 || f.Listener != "math.add" || len(f.Parameters) != 2 {
		t.Errorf("decoded FunctionInvoke mismatch: %+v", f)
	}
}

func TestEncodeDecodeReturnInvoke(t *testing.T) {
	data, err := encodeReturnInvoke(3, true, json.RawMessage(`5`))
	if err != nil {
		t.Fatalf("encodeReturnInvoke: %v", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	r, ok := rec.(*ReturnInvoke)
	if !ok {
		t.Fatalf("decodeRecord returned %T, want *ReturnInvoke", rec)
	}
	if r.Uid != 3 || !r.Success || string(r.Value) != "5" {
		t.Errorf("decoded ReturnInvoke mismatch: %+v", r)
	}
}

func TestDecodeRecord_Malformed(t *testing.T) {
	if _, err := decodeRecord([]byte(`{"foo":"bar"}`)); err == nil {
		t.Error("decodeRecord should error on a payload that is neither variant")
	}
	if _, err := decodeRecord([]byte(`not json`)); err == nil {
		t.Error("decodeRecord should error on invalid JSON")
	}
}

type namedErr struct{ msg string }

func (e *namedErr) Error() string { return e.msg }
func (e *namedErr) Stack() string { return "stack-trace-here" }

func TestEncodeDecodeErrorValue(t *testing.T) {
	raw := encodeErrorValue(&namedErr{msg: "boom"})
	re := decodeErrorValue(raw)
	if re.Message != "boom" {
		t.Errorf("Message = %q, want boom", re.Message)
	}
	if re.Stack != "stack-trace-here" {
		t.Errorf("Stack = %q, want stack-trace-here", re.Stack)
	}
}

func TestDecodeErrorValue_Empty(t *testing.T) {
	re := decodeErrorValue(nil)
	if re.Name != "Error" {
		t.Errorf("Name = %q, want Error for empty payload", re.Name)
	}
}

func TestDecodeErrorValue_Tagged(t *testing.T) {
	raw := encodeErrorValue(&TaggedError{Name: "RangeError", Message: "out of range"})
	re := decodeErrorValue(raw)
	if re.Name != "RangeError" || re.Message != "out of range" {
		t.Errorf("decoded RemoteError mismatch: %+v", re)
	}
}

func TestEncodeErrorValue_PlainError(t *testing.T) {
	raw := encodeErrorValue(errors.New("plain"))
	re := decodeErrorValue(raw)
	if re.Name != "Error" || re.Message != "plain" {
		t.Errorf("decoded RemoteError mismatch: %+v", re)
	}
}

package rfc

import (
	"encoding/json"
	"fmt"
)

// FunctionInvoke is the wire record for a function call: a fresh unique id,
// the dot-separated member path identifying the callable, and its arguments.
type FunctionInvoke struct {
	Uid        uint32  `json:"uid"`
	Listener   string  `json:"listener"`
	Parameters []Param `json:"parameters,omitempty"`
}

// ReturnInvoke is the wire record for the outcome of a function Invoke,
// correlated to it by Uid.
type ReturnInvoke struct {
	Uid     uint32          `json:"uid"`
	Success bool            `json:"success"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// ErrorValue is the wire shape of a failed ReturnInvoke's Value, preserving
// enough of the originating error to reconstruct a RemoteError on the peer.
type ErrorValue struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

func encodeFunctionInvoke(uid uint32, listener string, params []Param) ([]byte, error) {
	return json.Marshal(FunctionInvoke{Uid: uid, Listener: listener, Parameters: params})
}

func encodeReturnInvoke(uid uint32, success bool, value json.RawMessage) ([]byte, error) {
	return json.Marshal(ReturnInvoke{Uid: uid, Success: success, Value: value})
}

func encodeErrorValue(err error) json.RawMessage {
	ev := ErrorValue{
		Name:    errorName(err),
		Message: err.Error(),
	}
	if s, ok := err.(interface{ Stack() string }); ok {
		ev.Stack = s.Stack()
	}
	data, marshalErr := json.Marshal(ev)
	if marshalErr != nil {
		// ev is always marshalable (three strings); this is unreachable
		// in practice but we must never propagate a marshal failure here.
		return json.RawMessage(`{"name":"Error","message":"failed to encode error"}`)
	}
	return data
}

func decodeErrorValue(raw json.RawMessage) *RemoteError {
	var ev ErrorValue
	if len(raw) == 0 {
		return &RemoteError{Name: "Error", Message: "remote call failed"}
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return &RemoteError{Name: "Error", Message: string(raw)}
	}
	if ev.Name == "" {
		ev.Name = "Error"
	}
	return &RemoteError{Name: ev.Name, Message: ev.Message, Stack: ev.Stack}
}

// probeRecord is used only to classify an inbound payload as a function or
// return variant before fully decoding it: presence of listener means a
// function Invoke, presence of success means a return.
type probeRecord struct {
	Listener *string `json:"listener"`
	Success  *bool   `json:"success"`
}

// decodeRecord classifies and decodes a wire payload into either a
// *FunctionInvoke or a *ReturnInvoke.
func decodeRecord(data []byte) (any, error) {
	var probe probeRecord
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("rfc: decode record: %w", err)
	}
	switch {
	case probe.Listener != nil:
		var f FunctionInvoke
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("rfc: decode function invoke: %w", err)
		}
		return &f, nil
	case probe.Success != nil:
		var r ReturnInvoke
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("rfc: decode return invoke: %w", err)
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("rfc: record is neither a function nor a return variant")
	}
}

package rfc

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// titleCase converts a lowerCamel listener segment ("add") into the
// exported Go identifier it must match ("Add").
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// lowerFirst is the inverse convention used by the driver side: an exported
// Go field/method name ("Add") becomes the listener segment ("add") unless
// overridden by an `rfc:"..."` struct tag.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// resolveAndCall walks listener against provider and, on success, invokes
// the final callable member with params, returning its JSON-encoded result.
// Errors during resolution or the call itself are always returned as a Go
// error, never a panic — resolveAndCall recovers any panic raised by the
// provider method and turns it into a TaggedError named "PanicError" (a
// RemoteError of that name on the peer), since an error must never escape
// across the wire as a crash.
func resolveAndCall(provider any, listener string, params []Param) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaggedError{Name: "PanicError", Message: fmt.Sprintf("%v\n%s", r, debug.Stack())}
		}
	}()

	segments := strings.Split(listener, ".")
	if len(segments) == 0 || segments[0] == "" {
		return nil, &ResolutionError{Listener: listener, Reason: "empty listener"}
	}

	v := reflect.ValueOf(provider)
	var method reflect.Value

	for i, seg := range segments {
		final := i == len(segments)-1
		next, m, rerr := resolveSegment(v, seg)
		if rerr != nil {
			return nil, &ResolutionError{Listener: listener, Segment: seg, Reason: rerr.Error()}
		}
		if final {
			if !m.IsValid() {
				return nil, &ResolutionError{Listener: listener, Segment: seg, Reason: "not callable"}
			}
			method = m
			break
		}
		if !next.IsValid() {
			return nil, &ResolutionError{Listener: listener, Segment: seg, Reason: "not a member to navigate into"}
		}
		v = next
	}

	return callMethod(method, params)
}

// resolveSegment resolves one path segment against v. If a callable match
// is found (a method, or a function-typed field) it is returned as m; this
// is always attempted, so a final segment can be a method directly on an
// intermediate struct even if that struct is not itself a "namespace".
// Otherwise the navigable member (a nested struct/pointer) is returned as next.
func resolveSegment(v reflect.Value, seg string) (next reflect.Value, m reflect.Value, err error) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, reflect.Value{}, fmt.Errorf("member is nil")
		}
		v = v.Elem()
	}

	name := titleCase(seg)

	if v.CanAddr() {
		if method := v.Addr().MethodByName(name); method.IsValid() {
			return reflect.Value{}, method, nil
		}
	}
	if method := v.MethodByName(name); method.IsValid() {
		return reflect.Value{}, method, nil
	}

	if v.Kind() != reflect.Struct {
		return reflect.Value{}, reflect.Value{}, fmt.Errorf("no member named %q", seg)
	}

	field := v.FieldByName(name)
	if !field.IsValid() || !field.CanInterface() {
		return reflect.Value{}, reflect.Value{}, fmt.Errorf("no member named %q", seg)
	}
	if field.Kind() == reflect.Func {
		if field.IsNil() {
			return reflect.Value{}, reflect.Value{}, fmt.Errorf("member %q is unset", seg)
		}
		return reflect.Value{}, field, nil
	}
	return field, reflect.Value{}, nil
}

// callMethod invokes a resolved callable with wire params, decoding each
// argument into the method's declared type and encoding its result back to
// JSON. Supported signatures: any number of typed arguments, optionally
// preceded by a context.Context, returning (), (T), (error), or (T, error).
func callMethod(method reflect.Value, params []Param) (json.RawMessage, error) {
	t := method.Type()
	numIn := t.NumIn()

	args := make([]reflect.Value, numIn)
	paramIdx := 0
	for i := 0; i < numIn; i++ {
		in := t.In(i)
		if i == 0 && in == contextType {
			args[i] = reflect.ValueOf(context.Background())
			continue
		}
		target := reflect.New(in)
		if paramIdx < len(params) {
			if err := decodeParamInto(target, params[paramIdx]); err != nil {
				return nil, &ResolutionError{Reason: fmt.Sprintf("argument %d: %v", paramIdx, err)}
			}
		}
		args[i] = target.Elem()
		paramIdx++
	}

	outs := method.Call(args)
	return splitMethodResult(t, outs)
}

func decodeParamInto(target reflect.Value, p Param) error {
	if p.Serializable {
		if dec, ok := target.Interface().(ParamDecoder); ok {
			return dec.UnmarshalRFCParam(p.Raw)
		}
		return json.Unmarshal([]byte(p.Raw), target.Interface())
	}
	if len(p.Value) == 0 {
		return nil
	}
	return json.Unmarshal(p.Value, target.Interface())
}

// splitMethodResult interprets a provider method's return values against
// the (), (T), (error) and (T, error) shapes.
func splitMethodResult(t reflect.Type, outs []reflect.Value) (json.RawMessage, error) {
	numOut := t.NumOut()
	hasErrOut := numOut > 0 && t.Out(numOut-1) == errorType

	if hasErrOut {
		if errVal := outs[numOut-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}

	valOuts := numOut
	if hasErrOut {
		valOuts--
	}

	switch valOuts {
	case 0:
		return json.RawMessage("null"), nil
	case 1:
		data, err := json.Marshal(outs[0].Interface())
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported provider method shape: %d value results", valOuts)
	}
}

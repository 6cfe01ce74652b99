package rfc

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// GetDriver returns a fresh value shaped like T whose function-typed fields
// (and the function-typed fields of any nested struct fields) are bound to
// c: calling one of them builds the Invoke(function) record for the
// corresponding dot-separated member path, sends it, and decodes the
// matching return into T's declared result types.
//
// Go has no runtime property interception comparable to a JS Proxy, so
// transparent member access is realized at the struct level instead of the
// expression level: T's shape stands in for the provider's shape, and the
// member path is derived from field names (or an `rfc:"..."` struct tag
// override) rather than from arbitrary property reads. Each leaf field
// must be a func; the call semantics — parameter encoding, suspension
// until the matching return, a RemoteError on failure — are those of a
// plain function Invoke.
//
// Field func signatures may optionally start with a context.Context and may
// return any of: (), (error), (T), (T, error). A field should end in an
// error return whenever the call can fail — a shape without one reports a
// RemoteError/TransportError to c's ErrorHandler instead of returning it
// (and drops it if c has no ErrorHandler), so the caller then has no direct
// way to observe failure of that particular call.
func GetDriver[T any](c *Communicator) *T {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		panic("rfc: GetDriver requires T to be a struct type")
	}
	v := reflect.New(t)
	bindDriverFields(v.Elem(), c, nil)
	return v.Interface().(*T)
}

func driverSegment(field reflect.StructField) string {
	if tag := field.Tag.Get("rfc"); tag != "" {
		return tag
	}
	return lowerFirst(field.Name)
}

func bindDriverFields(v reflect.Value, c *Communicator, path []string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		segPath := append(append([]string{}, path...), driverSegment(field))

		switch field.Type.Kind() {
		case reflect.Func:
			fv.Set(makeCallerFunc(c, field.Type, strings.Join(segPath, ".")))
		case reflect.Struct:
			bindDriverFields(fv, c, segPath)
		default:
			panic(fmt.Sprintf("rfc: driver field %s has unsupported kind %s (want func or struct)", field.Name, field.Type.Kind()))
		}
	}
}

// makeCallerFunc builds, via reflect.MakeFunc, a function value of type
// fnType that turns a call into a sendInvoke against c for the given
// listener path.
func makeCallerFunc(c *Communicator, fnType reflect.Type, listener string) reflect.Value {
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		ctx := context.Background()
		start := 0
		if fnType.NumIn() > 0 && fnType.In(0) == contextType {
			if cv, ok := args[0].Interface().(context.Context); ok && cv != nil {
				ctx = cv
			}
			start = 1
		}

		params := make([]Param, 0, fnType.NumIn()-start)
		for i := start; i < fnType.NumIn(); i++ {
			params = append(params, newParam(args[i].Interface()))
		}

		raw, err := c.sendInvoke(ctx, listener, params)
		return decodeDriverResult(c, fnType, raw, err)
	})
}

// decodeDriverResult maps a call's outcome onto fnType's declared results.
// When fnType has no trailing error return, a non-nil callErr cannot be
// handed back to the caller — it is routed to c's ErrorHandler instead of
// being dropped.
func decodeDriverResult(c *Communicator, fnType reflect.Type, raw json.RawMessage, callErr error) []reflect.Value {
	numOut := fnType.NumOut()
	hasErrOut := numOut > 0 && fnType.Out(numOut-1) == errorType
	valOuts := numOut
	if hasErrOut {
		valOuts--
	}

	out := make([]reflect.Value, numOut)

	if callErr != nil {
		for i := 0; i < valOuts; i++ {
			out[i] = reflect.Zero(fnType.Out(i))
		}
		if hasErrOut {
			out[numOut-1] = reflect.ValueOf(&callErr).Elem()
		} else {
			c.reportError(callErr)
		}
		return out
	}

	if valOuts == 1 {
		target := reflect.New(fnType.Out(0))
		if len(raw) > 0 && string(raw) != "null" {
			if uerr := json.Unmarshal(raw, target.Interface()); uerr != nil {
				callErr = fmt.Errorf("rfc: decode result: %w", uerr)
			}
		}
		out[0] = target.Elem()
	}

	if hasErrOut {
		if callErr != nil {
			out[numOut-1] = reflect.ValueOf(&callErr).Elem()
		} else {
			out[numOut-1] = reflect.Zero(errorType)
		}
	} else if callErr != nil {
		c.reportError(callErr)
	}
	return out
}

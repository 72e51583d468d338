// file: server/binder.go
package server

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/rpcerrors"
)

// bindError is returned by bind to let Dispatch distinguish "no matching
// signature" (→ InvalidParams) from "more than one matching signature"
// (→ AmbiguousMatch, itself mapped to InvalidParams per spec §4.5 step 3)
// from a parameter conversion failure (→ InvalidParams, inner message
// attached).
type bindError struct {
	code    int
	message string
}

func (e *bindError) Error() string { return e.message }

func newBindError(msg string, args ...any) *bindError {
	return &bindError{code: rpcerrors.CodeInvalidParams, message: fmt.Sprintf(msg, args...)}
}

// bind implements the Method Binder (spec §4.4) over the candidate list
// registered for one wire method name. params is the raw JSON `params`
// value of the request (nil/absent means no params object at all).
//
// Binding is named-parameter-only: an array params value never matches
// any candidate (rule 1), a struct-shaped candidate requiring extension
// data rejection is enforced per-candidate (rule 3), and kind
// compatibility is checked before a candidate is accepted as a
// *structural* match, prior to actual JSON conversion (rule 2).
func bind(candidates []*contract.JsonRpcMethod, rawParams []byte) (*contract.JsonRpcMethod, reflect.Value, error) {
	if isJSONArray(rawParams) {
		return nil, reflect.Value{}, newBindError("positional params are not supported; binding requires a named params object")
	}

	fields := map[string]json.RawMessage{}
	if len(rawParams) > 0 && !isJSONNull(rawParams) {
		if err := json.Unmarshal(rawParams, &fields); err != nil {
			return nil, reflect.Value{}, newBindError("params must be an object for named binding: %s", err)
		}
	}

	var matches []*contract.JsonRpcMethod
	for _, cand := range candidates {
		if structurallyMatches(cand, fields) {
			matches = append(matches, cand)
		}
	}

	switch len(matches) {
	case 0:
		return nil, reflect.Value{}, newBindError("no matching signature for the supplied params")
	case 1:
		return convertParams(matches[0], fields)
	default:
		return nil, reflect.Value{}, newBindError("ambiguous match: %d candidate signatures accept the supplied params", len(matches))
	}
}

func isJSONArray(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

func isJSONNull(raw []byte) bool {
	trimmed := make([]byte, 0, len(raw))
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		trimmed = append(trimmed, b)
	}
	return string(trimmed) == "null"
}

// structurallyMatches applies binder rules 2 and 3 without performing the
// actual conversion.
func structurallyMatches(cand *contract.JsonRpcMethod, fields map[string]json.RawMessage) bool {
	for _, p := range cand.Parameters {
		raw, present := fields[p.Name]
		if !present {
			if !p.Optional {
				return false
			}
			continue
		}
		if !contract.KindCompatible(p.Kind, jsonKindOf(raw)) {
			return false
		}
	}
	if !cand.AllowExtensionData {
		declared := make(map[string]struct{}, len(cand.Parameters))
		for _, p := range cand.Parameters {
			declared[p.Name] = struct{}{}
		}
		for name := range fields {
			if _, ok := declared[name]; !ok {
				return false
			}
		}
	}
	return true
}

// convertParams performs rule 5: building the bound params struct value
// field by field via each Parameter's Converter.
func convertParams(m *contract.JsonRpcMethod, fields map[string]json.RawMessage) (*contract.JsonRpcMethod, reflect.Value, error) {
	if m.ParamsType == nil {
		return m, reflect.Value{}, nil
	}

	elemType := m.ParamsType
	isPtr := elemType.Kind() == reflect.Pointer
	if isPtr {
		elemType = elemType.Elem()
	}

	structPtr := reflect.New(elemType)
	structVal := structPtr.Elem()

	for _, p := range m.Parameters {
		raw, present := fields[p.Name]
		field := structVal.Field(p.FieldIndex)
		if !present {
			if p.Default != nil {
				defaultJSON, err := json.Marshal(p.Default)
				if err != nil {
					return nil, reflect.Value{}, newBindError("parameter %q: invalid default value: %s", p.Name, err)
				}
				raw = defaultJSON
			} else {
				continue // zero value stands in for the absent-sentinel
			}
		}
		converted, err := p.Converter.FromJSON(raw, p.Type)
		if err != nil {
			return nil, reflect.Value{}, newBindError("parameter %q: %s", p.Name, err)
		}
		field.Set(converted)
	}

	if isPtr {
		return m, structPtr, nil
	}
	return m, structVal, nil
}

func jsonKindOf(raw json.RawMessage) contract.JSONKind {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return contract.KindObject
		case '[':
			return contract.KindArray
		case '"':
			return contract.KindString
		case 't', 'f':
			return contract.KindBoolean
		case 'n':
			return contract.KindNull
		default:
			return contract.KindNumber
		}
	}
	return contract.KindNull
}

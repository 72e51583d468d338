// file: contract/method.go
package contract

import (
	"context"
	"errors"
	"reflect"
)

// JsonRpcMethod is one candidate implementation for a wire method name
// (spec §3). Overloads share a name but differ in their Parameters'
// names/types; the binder (server package) picks the unique match.
type JsonRpcMethod struct {
	MethodName         string
	ServiceType        reflect.Type
	IsNotification     bool
	AllowExtensionData bool
	HasContext         bool
	ParamsType         reflect.Type // nil when the method takes no params struct
	Parameters         []Parameter  // exported fields of ParamsType, empty if ParamsType is nil
	Return             Parameter

	goMethod reflect.Method
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invoke calls the underlying Go method on serviceValue. paramsValue must
// be the zero Value when ParamsType is nil, else a value of ParamsType
// built by the binder.
func (m *JsonRpcMethod) Invoke(ctx context.Context, serviceValue reflect.Value, paramsValue reflect.Value) (any, error) {
	in := make([]reflect.Value, 0, 3)
	in = append(in, serviceValue)
	if m.HasContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	if m.ParamsType != nil {
		in = append(in, paramsValue)
	}

	out := m.goMethod.Func.Call(in)
	return m.splitResults(out)
}

func (m *JsonRpcMethod) splitResults(out []reflect.Value) (any, error) {
	var result any
	var resultErr error

	switch len(out) {
	case 0:
		// void method
	case 1:
		if out[0].Type() == errorType {
			if !out[0].IsNil() {
				resultErr, _ = out[0].Interface().(error)
			}
		} else {
			result = out[0].Interface()
		}
	case 2:
		result = out[0].Interface()
		if !out[1].IsNil() {
			resultErr, _ = out[1].Interface().(error)
		}
	default:
		return nil, errors.New("contract: method has more than two return values")
	}
	return result, resultErr
}

// MethodRegistry maps a wire method name to its ordered list of
// candidate JsonRpcMethod entries (spec §4.3: "non-empty ordered list of
// candidate JsonRpcMethod entries, to support overload by arity/param
// type"). It is built once and never mutated after the host starts
// dispatching (spec §3 Lifecycle).
type MethodRegistry struct {
	methods map[string][]*JsonRpcMethod
}

// NewMethodRegistry creates an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string][]*JsonRpcMethod)}
}

// Candidates returns the candidate methods registered under name, or nil
// if the name is unknown.
func (r *MethodRegistry) Candidates(name string) []*JsonRpcMethod {
	return r.methods[name]
}

// Names returns every registered wire method name.
func (r *MethodRegistry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}

func (r *MethodRegistry) add(name string, m *JsonRpcMethod) {
	r.methods[name] = append(r.methods[name], m)
}

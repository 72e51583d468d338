// file: contract/resolver.go
package contract

import (
	"fmt"
	"reflect"
	"strings"
)

// MethodOption configures a single method registration (spec §4.3: "an
// explicit name on the annotation overrides the strategy"). Go has no
// annotations, so the registration call itself is the explicit marker
// that a method is exposed; these options are its parameters.
type MethodOption func(*methodSpec)

type methodSpec struct {
	name               string
	notification       bool
	allowExtensionData bool
	paramNames         map[string]string // Go field name -> explicit wire name
	optionalFields     map[string]bool   // Go field name -> force-optional
}

// WithName overrides the wire method name that would otherwise come from
// the NamingStrategy applied to the Go method name.
func WithName(name string) MethodOption {
	return func(s *methodSpec) { s.name = name }
}

// AsNotification marks the method as notification-only: it must have no
// non-error return value (spec §4.3: "Notification methods must return
// void/nothing").
func AsNotification() MethodOption {
	return func(s *methodSpec) { s.notification = true }
}

// AllowExtensionData permits params objects carrying keys the params
// struct doesn't declare (spec §4.4 rule 3).
func AllowExtensionData() MethodOption {
	return func(s *methodSpec) {
		s.allowExtensionData = true
	}
}

// WithParamName overrides the wire name of one params-struct field,
// identified by its Go field name.
func WithParamName(goFieldName, wireName string) MethodOption {
	return func(s *methodSpec) {
		if s.paramNames == nil {
			s.paramNames = make(map[string]string)
		}
		s.paramNames[goFieldName] = wireName
	}
}

// WithOptionalParam marks one params-struct field as optional even
// though it has no Go-level default, beyond what's inferred from it
// being a pointer type (spec §4.3: "A parameter is optional iff it has a
// language-level default or is annotated optional").
func WithOptionalParam(goFieldName string) MethodOption {
	return func(s *methodSpec) {
		if s.optionalFields == nil {
			s.optionalFields = make(map[string]bool)
		}
		s.optionalFields[goFieldName] = true
	}
}

// Resolver builds a MethodRegistry from Go service types (spec §4.3).
// Each exposed method has the shape:
//
//	func([ctx context.Context], [params ParamsStruct]) ([Result], [error])
//
// params, when present, is a struct (or pointer to struct) whose exported
// fields become the named JSON-RPC parameters, bound by field name
// (post-NamingStrategy) or by an explicit `jrpc:"name"` tag. A field
// tagged `jrpc:"name,optional"` or of pointer type is optional.
type Resolver struct {
	Naming    NamingStrategy
	Converter Converter
}

// NewResolver builds a Resolver. A nil naming strategy defaults to
// IdentityNaming; a nil converter defaults to JSONConverter.
func NewResolver(naming NamingStrategy, converter Converter) *Resolver {
	if naming == nil {
		naming = IdentityNaming
	}
	if converter == nil {
		converter = JSONConverter{}
	}
	return &Resolver{Naming: naming, Converter: converter}
}

// Register resolves one Go method (by its Go name) on serviceType and
// adds it to registry under its wire name. serviceType must be the
// concrete (non-pointer) type passed to the ServiceFactory at dispatch
// time; methods are looked up on *serviceType so both value- and
// pointer-receiver methods are found. A pointer serviceType finds no
// methods.
func (r *Resolver) Register(registry *MethodRegistry, serviceType reflect.Type, goMethodName string, opts ...MethodOption) error {
	spec := methodSpec{name: r.Naming(goMethodName)}
	for _, opt := range opts {
		opt(&spec)
	}

	ptrType := reflect.PointerTo(serviceType)
	goMethod, ok := ptrType.MethodByName(goMethodName)
	if !ok {
		return fmt.Errorf("contract: %s has no exported method %q", serviceType, goMethodName)
	}

	jm, err := r.buildMethod(serviceType, goMethod, spec)
	if err != nil {
		return fmt.Errorf("contract: resolving %s.%s: %w", serviceType, goMethodName, err)
	}
	registry.add(spec.name, jm)
	return nil
}

func (r *Resolver) buildMethod(serviceType reflect.Type, goMethod reflect.Method, spec methodSpec) (*JsonRpcMethod, error) {
	fn := goMethod.Func.Type()
	// In[0] is the receiver.
	in := 1
	jm := &JsonRpcMethod{
		MethodName:         spec.name,
		ServiceType:        serviceType,
		IsNotification:     spec.notification,
		AllowExtensionData: spec.allowExtensionData,
		goMethod:           goMethod,
	}

	if in < fn.NumIn() && fn.In(in) == contextType {
		jm.HasContext = true
		in++
	}

	if in < fn.NumIn() {
		paramsType := fn.In(in)
		elemType := paramsType
		for elemType.Kind() == reflect.Pointer {
			elemType = elemType.Elem()
		}
		if elemType.Kind() != reflect.Struct {
			return nil, fmt.Errorf("params argument must be a struct or pointer to struct, got %s", paramsType)
		}
		jm.ParamsType = paramsType
		params, err := r.buildParameters(elemType, spec)
		if err != nil {
			return nil, err
		}
		jm.Parameters = params
		in++
	}

	if in != fn.NumIn() {
		return nil, fmt.Errorf("unsupported parameter after [context][params]: method takes %d arguments", fn.NumIn()-1)
	}

	out := fn.NumOut()
	if out > 2 {
		return nil, fmt.Errorf("method must return at most (result, error) or (error)")
	}
	hasResult := out == 2 || (out == 1 && fn.Out(out-1) != errorType)
	hasError := (out == 1 && fn.Out(0) == errorType) || (out == 2 && fn.Out(1) == errorType)
	if out == 2 && !hasError {
		return nil, fmt.Errorf("second return value must be error")
	}
	if spec.notification && hasResult {
		return nil, fmt.Errorf("notification method must not return a value")
	}
	_ = hasError
	if hasResult {
		jm.Return = Parameter{Type: fn.Out(0), Kind: KindOf(fn.Out(0)), IsTask: true, Converter: r.Converter}
	} else {
		jm.Return = Parameter{IsTask: true}
	}

	return jm, nil
}

func (r *Resolver) buildParameters(structType reflect.Type, spec methodSpec) ([]Parameter, error) {
	params := make([]Parameter, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}

		name := r.Naming(field.Name)
		optional := field.Type.Kind() == reflect.Pointer
		var def any

		if tag, ok := field.Tag.Lookup("jrpc"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, flag := range parts[1:] {
				if flag == "optional" {
					optional = true
				}
			}
		}
		if override, ok := spec.paramNames[field.Name]; ok {
			name = override
		}
		if spec.optionalFields[field.Name] {
			optional = true
		}

		params = append(params, Parameter{
			Name:       name,
			Type:       field.Type,
			Kind:       KindOf(field.Type),
			FieldIndex: i,
			Optional:   optional,
			Default:    def,
			Converter:  r.Converter,
		})
	}
	return params, nil
}

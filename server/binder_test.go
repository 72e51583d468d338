// file: server/binder_test.go
package server

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jrpc/contract"
)

type sumParams struct {
	X int `jrpc:"x"`
	Y int `jrpc:"y"`
}

func sumMethod(t *testing.T, name string, allowExt bool) *contract.JsonRpcMethod {
	t.Helper()
	r := contract.NewResolver(nil, nil)
	registry := contract.NewMethodRegistry()
	opts := []contract.MethodOption{contract.WithName(name)}
	if allowExt {
		opts = append(opts, contract.AllowExtensionData())
	}
	require.NoError(t, r.Register(registry, reflect.TypeOf(sumService{}), "Sum", opts...))
	return registry.Candidates(name)[0]
}

type sumService struct{}

func (sumService) Sum(p sumParams) (int, error) { return p.X + p.Y, nil }

func TestBind_NamedParamsSucceed(t *testing.T) {
	m := sumMethod(t, "sum", false)
	matched, val, err := bind([]*contract.JsonRpcMethod{m}, []byte(`{"x":100,"y":-200}`))
	require.NoError(t, err)
	assert.Same(t, m, matched)
	assert.Equal(t, 100, val.FieldByName("X").Interface())
	assert.Equal(t, -200, val.FieldByName("Y").Interface())
}

func TestBind_ArrayParamsNeverMatch(t *testing.T) {
	m := sumMethod(t, "sum", false)
	_, _, err := bind([]*contract.JsonRpcMethod{m}, []byte(`[1,2]`))
	assert.Error(t, err)
}

func TestBind_MissingRequiredParamFailsWithNoMatch(t *testing.T) {
	m := sumMethod(t, "sum", false)
	_, _, err := bind([]*contract.JsonRpcMethod{m}, []byte(`{"x":1}`))
	assert.Error(t, err)
}

func TestBind_ExtensionDataRejectedByDefault(t *testing.T) {
	m := sumMethod(t, "sum", false)
	_, _, err := bind([]*contract.JsonRpcMethod{m}, []byte(`{"x":1,"y":2,"z":3}`))
	assert.Error(t, err)
}

func TestBind_ExtensionDataAllowedWhenConfigured(t *testing.T) {
	m := sumMethod(t, "sum", true)
	_, _, err := bind([]*contract.JsonRpcMethod{m}, []byte(`{"x":1,"y":2,"z":3}`))
	assert.NoError(t, err)
}

func TestBind_AmbiguousMatchAcrossCandidates(t *testing.T) {
	a := sumMethod(t, "sum", false)
	b := sumMethod(t, "sum", false)
	_, _, err := bind([]*contract.JsonRpcMethod{a, b}, []byte(`{"x":1,"y":2}`))
	require.Error(t, err)
	be, ok := err.(*bindError)
	require.True(t, ok)
	assert.Contains(t, be.message, "ambiguous")
}

type overloadIntParams struct {
	X int `jrpc:"x"`
	Y int `jrpc:"y"`
}

type overloadStringParams struct {
	A string `jrpc:"a"`
	B string `jrpc:"b"`
}

type overloadService struct{}

func (overloadService) AddInts(p overloadIntParams) (int, error)       { return p.X + p.Y, nil }
func (overloadService) AddStrings(p overloadStringParams) (string, error) { return p.A + p.B, nil }

type mixedVisibilityParams struct {
	unused bool
	X      int `jrpc:"x"`
	Y      int `jrpc:"y"`
}

type mixedVisibilityService struct{}

func (mixedVisibilityService) Add(p mixedVisibilityParams) (int, error) { return p.X + p.Y, nil }

// TestBind_UnexportedFieldDoesNotMisalignConversion guards the end-to-end
// path: an unexported struct field ahead of the bound ones must not shift
// which struct field a converted value lands in.
func TestBind_UnexportedFieldDoesNotMisalignConversion(t *testing.T) {
	r := contract.NewResolver(nil, nil)
	registry := contract.NewMethodRegistry()
	require.NoError(t, r.Register(registry, reflect.TypeOf(mixedVisibilityService{}), "Add", contract.WithName("add")))

	m := registry.Candidates("add")[0]
	_, val, err := bind([]*contract.JsonRpcMethod{m}, []byte(`{"x":7,"y":35}`))
	require.NoError(t, err)
	assert.Equal(t, 7, val.FieldByName("X").Interface())
	assert.Equal(t, 35, val.FieldByName("Y").Interface())
}

func TestBind_OverloadByParamTypeSelectsUniqueCandidate(t *testing.T) {
	r := contract.NewResolver(nil, nil)
	registry := contract.NewMethodRegistry()
	require.NoError(t, r.Register(registry, reflect.TypeOf(overloadService{}), "AddInts", contract.WithName("add")))
	require.NoError(t, r.Register(registry, reflect.TypeOf(overloadService{}), "AddStrings", contract.WithName("add")))

	candidates := registry.Candidates("add")
	matched, val, err := bind(candidates, []byte(`{"x":20,"y":35}`))
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(overloadIntParams{}), matched.ParamsType)
	assert.Equal(t, 20, val.FieldByName("X").Interface())

	matched2, val2, err := bind(candidates, []byte(`{"a":"abc","b":"def"}`))
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(overloadStringParams{}), matched2.ParamsType)
	assert.Equal(t, "abc", val2.FieldByName("A").Interface())
}

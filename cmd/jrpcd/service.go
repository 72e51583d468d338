// file: cmd/jrpcd/service.go
package main

import (
	"fmt"
	"log"

	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/rpcerrors"
)

// mathService is the demo service registered on the host: two "add"
// overloads distinguished by params-struct shape (spec §8 scenario 2,
// §4.4 rule "overload by arity/param-type"), one method that always
// raises an RpcException (scenario 3), and a terminate notification
// (scenario 6).
type mathService struct{}

type addIntParams struct {
	X int `jrpc:"x"`
	Y int `jrpc:"y"`
}

type addStringParams struct {
	A string `jrpc:"a"`
	B string `jrpc:"b"`
}

type sumParams struct {
	X int `jrpc:"x"`
	Y int `jrpc:"y"`
}

// AddInts and AddStrings both register under wire name "add"; the
// binder picks whichever candidate's params struct matches the
// request's named fields (§4.4).
func (mathService) AddInts(p addIntParams) (int, error) { return p.X + p.Y, nil }

func (mathService) AddStrings(p addStringParams) (string, error) { return p.A + p.B, nil }

func (mathService) Sum(p sumParams) (int, error) { return p.X + p.Y, nil }

// ThrowException always raises an RpcException so the demo can show the
// UnhandledException (-32010) code path end to end.
func (mathService) ThrowException() (int, error) {
	return 0, rpcerrors.NewRpcException(
		rpcerrors.CodeUnhandledException,
		"demoError: boom",
		map[string]any{"exceptionType": "demoError"},
	)
}

// Terminate is a notification: the server logs the side effect and
// emits no response (§8 scenario 6).
func (mathService) Terminate(p struct{}) {
	log.Println("jrpcd: received terminate notification")
}

// registerMathService wires mathService's methods into registry under
// host, one Register call per exposed method (spec §4.3: "a method is
// exposed iff explicitly annotated" — here, iff explicitly registered).
func registerMathService(register func(goMethodName string, opts ...contract.MethodOption) error) error {
	calls := []struct {
		goName string
		opts   []contract.MethodOption
	}{
		{"AddInts", []contract.MethodOption{contract.WithName("add")}},
		{"AddStrings", []contract.MethodOption{contract.WithName("add")}},
		{"Sum", []contract.MethodOption{contract.WithName("sum")}},
		{"ThrowException", []contract.MethodOption{contract.WithName("throwException")}},
		{"Terminate", []contract.MethodOption{contract.WithName("terminate"), contract.AsNotification()}},
	}
	for _, c := range calls {
		if err := register(c.goName, c.opts...); err != nil {
			return fmt.Errorf("jrpcd: registering %s: %w", c.goName, err)
		}
	}
	return nil
}

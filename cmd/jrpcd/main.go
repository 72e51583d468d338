// Package main wires the jrpc library's server and client together over
// stdio content-length framing: "jrpcd serve" runs a ServiceHost reading
// requests from stdin and writing responses to stdout; "jrpcd demo"
// spawns itself in serve mode as a child process and drives it through
// spec §8's round-trip scenarios with a Client, the way the teacher's
// cmd/server ties its own pieces together for a single runnable binary.
// file: cmd/jrpcd/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"reflect"

	"github.com/dkoosis/jrpc/client"
	"github.com/dkoosis/jrpc/config"
	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/server"
	"github.com/dkoosis/jrpc/wire"
)

var (
	version = "dev"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix("[jrpcd] ")

	args := os.Args[1:]
	if len(args) == 0 {
		runDemo()
		return
	}

	switch args[0] {
	case "serve":
		if err := runServe(args[1:]); err != nil {
			log.Fatalf("jrpcd: serve: %v", err)
		}
	case "demo":
		runDemo()
	case "-v", "--version":
		fmt.Printf("jrpcd %s\n", version)
	default:
		fmt.Printf("unknown command %q; usage: jrpcd [serve|demo]\n", args[0])
		os.Exit(1)
	}
}

// runServe builds a ServiceHost from an optional "-config" flag (falling
// back to config.Default()), registers the demo math service, and serves
// requests over content-length-framed stdin/stdout until EOF.
func runServe(args []string) error {
	settings := config.Default()
	if len(args) >= 2 && args[0] == "-config" {
		loaded, err := config.Load(args[1])
		if err != nil {
			return err
		}
		settings = loaded
	}

	// Stdout carries the content-length-framed RPC stream; logging goes
	// to stderr so the two never interleave.
	logging.InitLogging(settings.Log.ParseLevel(), os.Stderr)
	logger := logging.GetLogger("jrpcd")

	hostOpts, err := settings.HostOptions(logger)
	if err != nil {
		return err
	}
	host := server.NewServiceHost(hostOpts...)

	if err := registerMathService(func(goName string, opts ...contract.MethodOption) error {
		return host.Register(reflect.TypeOf(mathService{}), goName, opts...)
	}); err != nil {
		return err
	}

	reader := wire.NewMessageReader(wire.NewContentLengthReader(os.Stdin))
	writer := wire.NewMessageWriter(wire.NewContentLengthWriter(os.Stdout))

	log.Println("jrpcd serving over stdio content-length framing")
	return host.Serve(context.Background(), reader, writer)
}

// runDemo spawns "jrpcd serve" as a child process, attaches a Client to
// its stdin/stdout over the same content-length framing, and exercises
// the round-trip scenarios from spec §8: overload resolution (two "add"
// shapes), a plain method call, an RpcException, and a terminate
// notification.
func runDemo() {
	self, err := os.Executable()
	if err != nil {
		log.Fatalf("jrpcd: resolving own executable: %v", err)
	}

	cmd := exec.Command(self, "serve")
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Fatalf("jrpcd: stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Fatalf("jrpcd: stdout pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		log.Fatalf("jrpcd: starting server child: %v", err)
	}
	defer func() { _ = cmd.Process.Kill() }()

	writer := wire.NewMessageWriter(wire.NewContentLengthWriter(stdin))
	reader := wire.NewMessageReader(wire.NewContentLengthReader(stdout))

	logging.InitLogging(logging.LevelInfo, os.Stderr)
	c := client.NewClient(writer, client.WithIDPrefix("demo"), client.WithLogger(logging.GetLogger("jrpcd-demo")))
	ctx := context.Background()
	c.Attach(ctx, reader)

	mustCall(ctx, c, "add", map[string]int{"x": 20, "y": 35})
	mustCall(ctx, c, "add", map[string]string{"a": "abc", "b": "def"})
	mustCall(ctx, c, "sum", map[string]int{"x": 100, "y": -200})
	mustCall(ctx, c, "throwException", struct{}{})

	if err := c.SendNotification(ctx, "terminate", struct{}{}); err != nil {
		log.Fatalf("jrpcd: terminate notification: %v", err)
	}

	log.Println("jrpcd demo complete")
}

func mustCall(ctx context.Context, c *client.Client, method string, params any) {
	resp, err := c.SendRequest(ctx, method, params)
	if err != nil {
		log.Fatalf("jrpcd: call %s: %v", method, err)
	}
	if resp.Error != nil {
		log.Printf("%s -> error %d: %s", method, resp.Error.Code, resp.Error.Message)
		return
	}
	log.Printf("%s -> %s", method, string(resp.Result))
}

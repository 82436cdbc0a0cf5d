// Command proton encodes, decodes and exercises ProtoN messages.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/starfederation/proton-go/internal/config"
	"github.com/starfederation/proton-go/internal/logging"
)

type cli struct {
	LogLevel string `help:"Log level (trace, debug, info, warn, error, off)." default:"info" env:"PROTON_LOG_LEVEL"`
	NoColor  bool   `help:"Disable colored log output." env:"PROTON_LOG_NOCOLOR"`

	Encode    encodeCmd    `cmd:"" help:"Encode a JSON or CBOR document as ProtoN."`
	Decode    decodeCmd    `cmd:"" help:"Decode a ProtoN message to JSON or CBOR."`
	Merge     mergeCmd     `cmd:"" help:"Apply a ProtoN merge patch to a ProtoN message."`
	Roundtrip roundtripCmd `cmd:"" help:"Round-trip every JSON file in a directory through ProtoN."`
	Stats     statsCmd     `cmd:"" help:"Compare ProtoN and JSON sizes for every JSON file in a directory."`
	Gen       genCmd       `cmd:"" help:"Write random JSON documents for round-trip testing."`
	Serve     serveCmd     `cmd:"" help:"Run the ProtoN echo server."`
	Send      sendCmd      `cmd:"" help:"POST a JSON document as ProtoN and print the JSON reply."`
}

// runContext carries the process streams and logger into commands.
type runContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "proton:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var root cli
	parser, err := kong.New(&root,
		kong.Name("proton"),
		kong.Description("Encode, decode and exercise ProtoN messages."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	rc := &runContext{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log: logging.New(stderr, "proton", config.LogConfig{
			Level:   root.LogLevel,
			NoColor: root.NoColor,
		}),
	}
	return kctx.Run(rc)
}

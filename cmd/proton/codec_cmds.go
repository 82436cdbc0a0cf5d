package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	proton "github.com/starfederation/proton-go"
	"github.com/starfederation/proton-go/merge"
)

type encodeCmd struct {
	In       string `arg:"" optional:"" default:"-" help:"Input document, - for stdin."`
	Out      string `short:"o" default:"-" help:"Output file, - for stdout."`
	From     string `enum:"json,cbor" default:"json" help:"Input format (json, cbor)."`
	MaxDepth int    `default:"256" help:"Maximum container nesting."`
}

func (c *encodeCmd) Run(rc *runContext) error {
	var (
		v   proton.Value
		err error
	)
	switch c.From {
	case "cbor":
		data, rerr := readInput(rc, c.In)
		if rerr != nil {
			return rerr
		}
		v, err = proton.FromCBOR(data)
	default:
		data, rerr := readText(rc, c.In)
		if rerr != nil {
			return rerr
		}
		v, err = proton.FromJSON(data)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.From, err)
	}
	msg, err := proton.Codec{MaxDepth: c.MaxDepth}.Encode(v)
	if err != nil {
		return err
	}
	rc.log.Debug().Int("bytes", len(msg)).Msg("encoded")
	return writeOutput(rc, c.Out, msg)
}

type decodeCmd struct {
	In       string `arg:"" optional:"" default:"-" help:"Input message, - for stdin."`
	Out      string `short:"o" default:"-" help:"Output file, - for stdout."`
	To       string `enum:"json,cbor" default:"json" help:"Output format (json, cbor)."`
	Indent   bool   `help:"Indent JSON output."`
	MaxDepth int    `default:"256" help:"Maximum container nesting."`
}

func (c *decodeCmd) Run(rc *runContext) error {
	data, err := readInput(rc, c.In)
	if err != nil {
		return err
	}
	v, err := proton.Codec{MaxDepth: c.MaxDepth}.Decode(data)
	if err != nil {
		return err
	}
	out, err := render(v, c.To, c.Indent)
	if err != nil {
		return err
	}
	return writeOutput(rc, c.Out, out)
}

func render(v proton.Value, format string, indent bool) ([]byte, error) {
	if format == "cbor" {
		return proton.ToCBOR(v)
	}
	out, err := proton.AppendJSON(nil, v)
	if err != nil {
		return nil, err
	}
	if indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			return nil, err
		}
		out = buf.Bytes()
	}
	return append(out, '\n'), nil
}

type mergeCmd struct {
	Target string `arg:"" type:"existingfile" help:"ProtoN message to patch."`
	Patch  string `arg:"" type:"existingfile" help:"ProtoN merge patch."`
	Out    string `short:"o" default:"-" help:"Output file, - for stdout."`
}

func (c *mergeCmd) Run(rc *runContext) error {
	target, err := readInput(rc, c.Target)
	if err != nil {
		return err
	}
	patch, err := readInput(rc, c.Patch)
	if err != nil {
		return err
	}
	out, err := merge.ApplyDocument(target, patch)
	if err != nil {
		return err
	}
	return writeOutput(rc, c.Out, out)
}

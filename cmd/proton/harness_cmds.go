package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zlib"

	proton "github.com/starfederation/proton-go"
	"github.com/starfederation/proton-go/internal/corpus"
)

// jsonFiles lists *.json files directly under dir in name order.
func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

type roundtripCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory of JSON documents."`
}

var errRoundtripFailed = errors.New("round trip failed")

func (c *roundtripCmd) Run(rc *runContext) error {
	files, err := jsonFiles(c.Dir)
	if err != nil {
		return err
	}
	failed := 0
	for _, path := range files {
		name := filepath.Base(path)
		if err := roundtripFile(rc, path); err != nil {
			failed++
			rc.log.Error().Str("file", name).Err(err).Msg("FAIL")
			fmt.Fprintf(rc.stdout, "FAIL %s: %v\n", name, err)
			continue
		}
		rc.log.Debug().Str("file", name).Msg("PASS")
		fmt.Fprintf(rc.stdout, "PASS %s\n", name)
	}
	rc.log.Info().Int("files", len(files)).Int("failed", failed).Msg("round trip complete")
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", errRoundtripFailed, failed, len(files))
	}
	return nil
}

func roundtripFile(rc *runContext, path string) error {
	data, err := readText(rc, path)
	if err != nil {
		return err
	}
	v, err := proton.FromJSON(data)
	if err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	msg, err := proton.Encode(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	got, err := proton.Decode(msg)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if !got.Equal(v) {
		return errors.New("decoded value differs from input")
	}
	return nil
}

type statsCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory of JSON documents."`
}

type sizeRow struct {
	name                       string
	json, proton, jsonZ, protZ int
}

func (c *statsCmd) Run(rc *runContext) error {
	files, err := jsonFiles(c.Dir)
	if err != nil {
		return err
	}
	var total sizeRow
	total.name = "total"
	for _, path := range files {
		row, err := measure(rc, path)
		if err != nil {
			rc.log.Warn().Str("file", filepath.Base(path)).Err(err).Msg("skipped")
			continue
		}
		printRow(rc, row)
		total.json += row.json
		total.proton += row.proton
		total.jsonZ += row.jsonZ
		total.protZ += row.protZ
	}
	printRow(rc, total)
	return nil
}

func measure(rc *runContext, path string) (sizeRow, error) {
	data, err := readText(rc, path)
	if err != nil {
		return sizeRow{}, err
	}
	v, err := proton.FromJSON(data)
	if err != nil {
		return sizeRow{}, err
	}
	compact, err := proton.AppendJSON(nil, v)
	if err != nil {
		return sizeRow{}, err
	}
	msg, err := proton.Encode(v)
	if err != nil {
		return sizeRow{}, err
	}
	jz, err := deflatedSize(compact)
	if err != nil {
		return sizeRow{}, err
	}
	pz, err := deflatedSize(msg)
	if err != nil {
		return sizeRow{}, err
	}
	return sizeRow{name: filepath.Base(path), json: len(compact), proton: len(msg), jsonZ: jz, protZ: pz}, nil
}

func deflatedSize(b []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(b); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func printRow(rc *runContext, r sizeRow) {
	ratio := 0.0
	if r.json > 0 {
		ratio = float64(r.proton) / float64(r.json) * 100
	}
	fmt.Fprintf(rc.stdout, "%-24s json=%-9s proton=%-9s (%5.1f%%) json+zlib=%-9s proton+zlib=%s\n",
		r.name,
		humanize.Bytes(uint64(r.json)),
		humanize.Bytes(uint64(r.proton)),
		ratio,
		humanize.Bytes(uint64(r.jsonZ)),
		humanize.Bytes(uint64(r.protZ)),
	)
}

type genCmd struct {
	Dir   string `arg:"" help:"Output directory, created if missing."`
	Count int    `short:"n" default:"20" help:"Number of documents."`
	Seed  uint64 `default:"1" help:"Generator seed."`
}

func (c *genCmd) Run(rc *runContext) error {
	if c.Count < 0 {
		return fmt.Errorf("count must be >= 0, got %d", c.Count)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	gen := corpus.New(c.Seed)
	for i := range c.Count {
		out, err := proton.AppendJSON(nil, gen.Root())
		if err != nil {
			return err
		}
		path := filepath.Join(c.Dir, fmt.Sprintf("test_%03d.json", i))
		if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
			return err
		}
	}
	rc.log.Info().Int("count", c.Count).Uint64("seed", c.Seed).Str("dir", c.Dir).Msg("generated")
	return nil
}

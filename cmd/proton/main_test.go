package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	proton "github.com/starfederation/proton-go"
)

func runCLI(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--no-color", "--log-level=error"}, args...), bytes.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestEncodeDecodeStdio(t *testing.T) {
	doc := `{"b":[1,2.5,"x"],"a":null}`
	msg, err := runCLI(t, []byte(doc), "encode")
	require.NoError(t, err)

	want, err := proton.FromJSON([]byte(doc))
	require.NoError(t, err)
	got, err := proton.Decode([]byte(msg))
	require.NoError(t, err)
	require.Equal(t, want, got)

	out, err := runCLI(t, []byte(msg), "decode")
	require.NoError(t, err)
	require.Equal(t, doc+"\n", out)
}

func TestEncodeStripsBOM(t *testing.T) {
	in := append([]byte("\xef\xbb\xbf"), `[true]`...)
	msg, err := runCLI(t, in, "encode")
	require.NoError(t, err)
	got, err := proton.Decode([]byte(msg))
	require.NoError(t, err)
	require.Equal(t, proton.List(proton.Bool(true)), got)
}

func TestEncodeDecodeCBOR(t *testing.T) {
	msg, err := runCLI(t, []byte(`{"k":[1,-1,0.5]}`), "encode")
	require.NoError(t, err)
	cborOut, err := runCLI(t, []byte(msg), "decode", "--to=cbor")
	require.NoError(t, err)
	back, err := runCLI(t, []byte(cborOut), "encode", "--from=cbor")
	require.NoError(t, err)
	require.Equal(t, msg, back)
}

func TestEncodeFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.pn")
	require.NoError(t, os.WriteFile(in, []byte(`[1]`), 0o644))
	_, err := runCLI(t, nil, "encode", in, "-o", out)
	require.NoError(t, err)
	msg, err := os.ReadFile(out)
	require.NoError(t, err)
	got, err := proton.Decode(msg)
	require.NoError(t, err)
	require.Equal(t, proton.List(proton.Int(1)), got)
}

func TestEncodeRejectsScalarRoot(t *testing.T) {
	_, err := runCLI(t, []byte(`42`), "encode")
	require.ErrorIs(t, err, proton.ErrInvalidRoot)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) string {
		v, err := proton.FromJSON([]byte(doc))
		require.NoError(t, err)
		msg, err := proton.Encode(v)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, msg, 0o644))
		return path
	}
	target := write("target.pn", `{"a":1,"b":{"c":2}}`)
	patch := write("patch.pn", `{"a":null,"b":{"d":3}}`)
	out, err := runCLI(t, nil, "merge", target, patch)
	require.NoError(t, err)
	got, err := proton.Decode([]byte(out))
	require.NoError(t, err)
	want, err := proton.FromJSON([]byte(`{"b":{"c":2,"d":3}}`))
	require.NoError(t, err)
	require.True(t, got.Equal(want), "merged %s", got)
}

func TestGenThenRoundtrip(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, nil, "gen", dir, "-n", "5", "--seed", "9")
	require.NoError(t, err)
	files, err := jsonFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 5)

	out, err := runCLI(t, nil, "roundtrip", dir)
	require.NoError(t, err)
	require.Equal(t, 5, strings.Count(out, "PASS "))

	stats, err := runCLI(t, nil, "stats", dir)
	require.NoError(t, err)
	require.Contains(t, stats, "total")
	require.Contains(t, stats, "proton+zlib=")
}

func TestRoundtripReportsFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(`{"ok":true}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scalar.json"), []byte(`"just a string"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	out, err := runCLI(t, nil, "roundtrip", dir)
	require.ErrorIs(t, err, errRoundtripFailed)
	require.Contains(t, out, "PASS good.json")
	require.Contains(t, out, "FAIL scalar.json")
	require.NotContains(t, out, "notes.txt")
}

func TestDeflatedSize(t *testing.T) {
	n, err := deflatedSize(bytes.Repeat([]byte("proton "), 100))
	require.NoError(t, err)
	require.Less(t, n, 700)
	require.Greater(t, n, 0)
}

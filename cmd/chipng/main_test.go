package main

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/service/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string) {
	t.Helper()
	buf := bleed.NewBuffer(4, 4)
	buf.Set(1, 1, color.NRGBA{R: 120, G: 60, B: 30, A: 255})
	var out bytes.Buffer
	require.NoError(t, codec.Encode(&out, buf, codec.PNG))
	require.NoError(t, os.WriteFile(name, out.Bytes(), 0o644))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	writeImage(t, filepath.Join(in, "sprite.png"))
	out := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-workers", "2", "-o", out, "-suffix", "_b", "-format", "tiff", in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "ok ")

	data, err := os.ReadFile(filepath.Join(out, "sprite_b.tiff"))
	require.NoError(t, err)
	decoded, format, err := codec.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, codec.TIFF, format)
	assert.Equal(t, color.NRGBA{R: 120, G: 60, B: 30}, decoded.At(0, 0))
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	testCases := []struct {
		description string
		args        []string
		expect      int
	}{
		{description: "no sources", args: []string{"-o", dir}, expect: 2},
		{description: "bad flag", args: []string{"-bogus", broken}, expect: 2},
		{description: "unknown format", args: []string{"-format", "gif", "-o", dir, broken}, expect: 2},
		{description: "undecodable input", args: []string{"-o", filepath.Join(dir, "out"), broken}, expect: 1},
	}
	for _, testCase := range testCases {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), testCase.args, &stdout, &stderr)
		assert.Equal(t, testCase.expect, code, testCase.description)
	}
}

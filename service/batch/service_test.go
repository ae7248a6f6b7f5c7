package batch

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/service/archive"
	"github.com/rbxxaxa/chipng/service/codec"
	"github.com/rbxxaxa/chipng/service/scheduler"
	"github.com/rbxxaxa/chipng/service/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func encoded(t *testing.T, format codec.Format, c color.NRGBA) []byte {
	t.Helper()
	buf := bleed.NewBuffer(3, 3)
	buf.Set(1, 1, c)
	var out bytes.Buffer
	require.NoError(t, codec.Encode(&out, buf, format))
	return out.Bytes()
}

func newRunner(t *testing.T) (*Service, *storage.Service) {
	t.Helper()
	sched, err := scheduler.New(scheduler.WithWorkers(2))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	t.Cleanup(func() { _ = sched.Shutdown(ctx) })
	store := storage.New(afs.New())
	return New(store, sched), store
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	runner, store := newRunner(t)
	base := "mem://localhost/batch-run"
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	require.NoError(t, store.Upload(ctx, base+"/in/red.png", encoded(t, codec.PNG, red)))
	require.NoError(t, store.Upload(ctx, base+"/in/sub/blue.tiff", encoded(t, codec.TIFF, blue)))
	require.NoError(t, store.Upload(ctx, base+"/in/broken.png", []byte("garbage")))

	report, err := runner.Run(ctx, &Request{
		Sources:   []string{base + "/in"},
		Recursive: true,
		Dest:      base + "/out",
		Suffix:    "_bled",
		Archive:   base + "/out.zip",
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 3)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, base+"/out.zip", report.Archive)

	byName := map[string]*Item{}
	for _, item := range report.Items {
		byName[item.Source] = item
	}
	broken := byName[base+"/in/broken.png"]
	require.NotNil(t, broken)
	assert.ErrorIs(t, broken.Err, codec.ErrDecode)

	redItem := byName[base+"/in/red.png"]
	require.NotNil(t, redItem)
	require.NoError(t, redItem.Err)
	assert.Equal(t, base+"/out/red_bled.png", redItem.Dest)
	assert.Equal(t, 8, redItem.Stats.Resolved)

	data, err := store.Download(ctx, redItem.Dest)
	require.NoError(t, err)
	out, format, err := codec.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, codec.PNG, format)
	assert.Equal(t, color.NRGBA{R: 255}, out.At(0, 0))
	assert.Equal(t, red, out.At(1, 1))

	blueItem := byName[base+"/in/sub/blue.tiff"]
	require.NotNil(t, blueItem)
	require.NoError(t, blueItem.Err)
	assert.Equal(t, base+"/out/sub/blue_bled.tiff", blueItem.Dest)

	zipped, err := store.Download(ctx, report.Archive)
	require.NoError(t, err)
	entries, err := archive.Entries(zipped)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Contains(t, entries, "red_bled.png")
	assert.Contains(t, entries, "sub/blue_bled.tiff")
}

func TestService_RunFormatOverride(t *testing.T) {
	ctx := context.Background()
	runner, store := newRunner(t)
	base := "mem://localhost/batch-format"
	require.NoError(t, store.Upload(ctx, base+"/a.png", encoded(t, codec.PNG, color.NRGBA{G: 255, A: 255})))

	report, err := runner.Run(ctx, &Request{Sources: []string{base + "/a.png", base + "/missing.png"}, Dest: base + "/out", Format: codec.TIFF})
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, base+"/out/a.tiff", report.Items[0].Dest)
	assert.Error(t, report.Items[1].Err)
	assert.Equal(t, 1, report.Failed())
}

func TestService_RunSameNamedSources(t *testing.T) {
	ctx := context.Background()
	runner, store := newRunner(t)
	base := "mem://localhost/batch-same-name"
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	require.NoError(t, store.Upload(ctx, base+"/a/x.png", encoded(t, codec.PNG, red)))
	require.NoError(t, store.Upload(ctx, base+"/b/x.png", encoded(t, codec.PNG, blue)))

	report, err := runner.Run(ctx, &Request{
		Sources: []string{base + "/a/x.png", base + "/b/x.png"},
		Dest:    base + "/out",
		Archive: base + "/out.zip",
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	require.NoError(t, report.Items[0].Err)
	require.NoError(t, report.Items[1].Err)
	assert.Equal(t, base+"/out/x.png", report.Items[0].Dest)
	assert.Equal(t, base+"/out/x-1.png", report.Items[1].Dest)
	assert.Equal(t, "x.png", report.Items[0].Entry)
	assert.Equal(t, "x-1.png", report.Items[1].Entry)

	for i, expect := range []color.NRGBA{red, blue} {
		data, err := store.Download(ctx, report.Items[i].Dest)
		require.NoError(t, err)
		out, _, err := codec.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, expect, out.At(1, 1), "output %d keeps its own pixels", i)
	}
}

func TestRequest_Validate(t *testing.T) {
	testCases := []struct {
		description string
		request     Request
		ok          bool
	}{
		{description: "no sources", request: Request{Dest: "out"}},
		{description: "no destination", request: Request{Sources: []string{"in"}}},
		{description: "read only format", request: Request{Sources: []string{"in"}, Dest: "out", Format: codec.WebP}},
		{description: "valid", request: Request{Sources: []string{"in"}, Archive: "out.zip"}, ok: true},
	}
	for _, testCase := range testCases {
		err := testCase.request.Validate()
		if testCase.ok {
			assert.NoError(t, err, testCase.description)
			continue
		}
		assert.Error(t, err, testCase.description)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "sub/a_x.png", outputName("sub/a.tiff", "_x", codec.PNG))
	assert.Equal(t, "a.tiff", outputName("a.tif", "", codec.TIFF))
	assert.Equal(t, "a.png", relative("mem://localhost/x/a.png", "mem://localhost/x/a.png"))
	assert.Equal(t, "b/a.png", relative("mem://localhost/x", "mem://localhost/x/b/a.png"))
}

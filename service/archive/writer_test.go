package archive

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Methods(t *testing.T) {
	payload := bytes.Repeat([]byte("chipng"), 512)
	for _, method := range []Method{Deflate, Zstd, Store, ""} {
		w, err := NewWriter(method)
		require.NoError(t, err, method)
		_, err = w.Add("sprites/a.png", payload)
		require.NoError(t, err)
		data, err := w.Bytes()
		require.NoError(t, err)

		entries, err := Entries(data)
		require.NoError(t, err, method)
		assert.Equal(t, payload, entries["sprites/a.png"], method)
	}
	_, err := NewWriter("lzma")
	assert.Error(t, err)
}

func TestWriter_UniqueNames(t *testing.T) {
	w, err := NewWriter(Deflate)
	require.NoError(t, err)
	var names []string
	for _, name := range []string{"a.png", "a.png", "/a.png", "a-1.png", "b"} {
		actual, err := w.Add(name, []byte(name))
		require.NoError(t, err)
		names = append(names, actual)
	}
	assert.Equal(t, []string{"a.png", "a-1.png", "a-2.png", "a-1-1.png", "b"}, names)
	assert.Equal(t, 5, w.Len())

	data, err := w.Bytes()
	require.NoError(t, err)
	entries, err := Entries(data)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	_, err = w.Add("late.png", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWriter_ConcurrentAdd(t *testing.T) {
	w, err := NewWriter(Zstd)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := w.Add(fmt.Sprintf("img-%02d.png", i), []byte{byte(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	data, err := w.Bytes()
	require.NoError(t, err)
	entries, err := Entries(data)
	require.NoError(t, err)
	require.Len(t, entries, 32)
	assert.Equal(t, []byte{7}, entries["img-07.png"])
}

func TestNames_Unique(t *testing.T) {
	names := NewNames()
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "x.png", expect: "x.png"},
		{input: "x.png", expect: "x-1.png"},
		{input: "sub/x.png", expect: "sub/x.png"},
		{input: "x-1.png", expect: "x-1-1.png"},
		{input: "x.png", expect: "x-2.png"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, names.Unique(testCase.input), testCase.input)
	}
}

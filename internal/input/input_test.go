// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package input

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/devlog/internal/record"
)

const testLines = `{"level":"info","dt":"2024-01-01T00:00:00Z","message":"first","context":{"source":{"file_name":"a.js"}}}

{"level":"error","dt":"2024-01-01T00:00:01Z","message":"second","event":{"id":18446744073709551616}}
`

func gzipped(t *testing.T, data string) []byte {
	t.Helper()

	buffer := new(bytes.Buffer)
	writer := gzip.NewWriter(buffer)
	_, err := writer.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func zstded(t *testing.T, data string) []byte {
	t.Helper()

	buffer := new(bytes.Buffer)
	writer, err := zstd.NewWriter(buffer)
	require.NoError(t, err)
	_, err = writer.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func collect(t *testing.T, r io.Reader) ([]*record.Record, error) {
	t.Helper()

	scanner := NewScanner(r)
	records := make([]*record.Record, 0)
	for scanner.Scan() {
		records = append(records, scanner.Record())
	}
	return records, scanner.Err()
}

func TestNewReader(t *testing.T) {
	t.Parallel()

	testCases := map[string][]byte{
		"plain": []byte(testLines),
		"gzip":  gzipped(t, testLines),
		"zstd":  zstded(t, testLines),
	}

	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reader, err := NewReader(io.NopCloser(bytes.NewReader(data)))
			require.NoError(t, err)
			defer reader.Close()

			records, err := collect(t, reader)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "first", records[0].Message)
			assert.Equal(t, "second", records[1].Message)
			assert.Contains(t, records[1].Event, "id")
		})
	}
}

func TestNewReaderEmptyInput(t *testing.T) {
	t.Parallel()

	reader, err := NewReader(io.NopCloser(strings.NewReader("")))
	require.NoError(t, err)
	defer reader.Close()

	records, err := collect(t, reader)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewReaderCorruptedGzip(t *testing.T) {
	t.Parallel()

	_, err := NewReader(io.NopCloser(bytes.NewReader([]byte{0x1f, 0x8b, 0x00})))
	require.Error(t, err)
	assert.ErrorContains(t, err, "gzip")
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("file on disk", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "logs.jsonl.gz")
		require.NoError(t, os.WriteFile(path, gzipped(t, testLines), 0o600))

		reader, err := Open(path, nil)
		require.NoError(t, err)
		defer reader.Close()

		records, err := collect(t, reader)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("standard input", func(t *testing.T) {
		t.Parallel()

		reader, err := Open(StdinPath, strings.NewReader(testLines))
		require.NoError(t, err)
		defer reader.Close()

		records, err := collect(t, reader)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
		assert.ErrorIs(t, err, syscall.ENOENT)
	})
}

func TestScannerReportsLine(t *testing.T) {
	t.Parallel()

	input := "{\"level\":\"info\"}\n\n[not json\n{\"level\":\"debug\"}\n"
	scanner := NewScanner(strings.NewReader(input))

	require.True(t, scanner.Scan())
	assert.Equal(t, "info", scanner.Record().Level)
	require.False(t, scanner.Scan())
	require.False(t, scanner.Scan())

	var lineErr *LineError
	require.ErrorAs(t, scanner.Err(), &lineErr)
	assert.Equal(t, 3, lineErr.Line)
	assert.ErrorIs(t, scanner.Err(), record.ErrInvalidRecord)
	assert.ErrorContains(t, scanner.Err(), "line 3")
}

func TestScannerSkipsInvalidLines(t *testing.T) {
	t.Parallel()

	input := "{\"level\":\"info\"}\nplain text line\n{\"level\":\"debug\"}\n\"string\"\n"
	scanner := NewScanner(strings.NewReader(input))

	invalidLines := []int{}
	scanner.OnInvalid(func(err *LineError) {
		assert.ErrorIs(t, err, record.ErrInvalidRecord)
		invalidLines = append(invalidLines, err.Line)
	})

	levels := []string{}
	for scanner.Scan() {
		levels = append(levels, scanner.Record().Level)
	}

	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"info", "debug"}, levels)
	assert.Equal(t, []int{2, 4}, invalidLines)
}

// Copyright 2026 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decompress

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const doc = `{"type":"item","bundle":"item"}`

func gzipped(t *testing.T, s string) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReader(t *testing.T) {
	for _, c := range []struct {
		name  string
		input []byte
	}{
		{"plain", []byte(doc)},
		{"gzip", gzipped(t, doc)},
	} {
		t.Run(c.name, func(t *testing.T) {
			r, err := Reader(bytes.NewReader(c.input))
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, doc, string(data))
		})
	}
}

func TestReaderShort(t *testing.T) {
	for _, s := range []string{"", "[", "{}"} {
		r, err := Reader(strings.NewReader(s))
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, s, string(data))
	}
}

func TestReaderBroken(t *testing.T) {
	_, err := Reader(strings.NewReader("\x1f\x8bnot gzip data"))
	require.Equal(t, gzip.ErrHeader, err)

	r, err := Reader(strings.NewReader("BZh{}"))
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	require.Error(t, err)
}

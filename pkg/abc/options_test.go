package abc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/vertexcache/pkg/nvc"
)

func TestDefaultImportOptions_Reproducible(t *testing.T) {
	a, err := DefaultImportOptions().MarshalBinary()
	require.NoError(t, err)
	b, err := DefaultImportOptions().MarshalBinary()
	require.NoError(t, err)

	require.Len(t, a, ImportOptionsSize)
	assert.True(t, bytes.Equal(a, b))
}

func TestImportOptions_MarshalLayout(t *testing.T) {
	data, err := DefaultImportOptions().MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		1, 0, 0, 0, // compute if missing
		1, 0, 0, 0, // compute tangents
		0x00, 0x00, 0x80, 0x3f, // 1.0
		0x00, 0x00, 0x80, 0xbf, // -1.0
		0x00, 0x00, 0x80, 0xbf, // -1.0
		0xff, 0xff, 0xff, 0x7f, // split unit
		1, 0, 1, 0, 1, // handedness, winding, interpolate, quad edges, threads
		1, 1, 1, 1, // point, line, triangle polygons, points
		0, 0, 0, // padding
	}
	assert.Equal(t, want, data)
}

func TestDefaultExportOptions_Reproducible(t *testing.T) {
	a, err := DefaultExportOptions().MarshalBinary()
	require.NoError(t, err)
	b, err := DefaultExportOptions().MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 0, 0, 0, 30, 0, 0, 0}, a)
	assert.Equal(t, a, b)
}

func TestExportOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultExportOptions().Validate())
	assert.Error(t, ExportOptions{Compression: nvc.CompressionType(7), BlockSize: 1}.Validate())
	assert.Error(t, ExportOptions{Compression: nvc.CompressionNone}.Validate())
}

func TestImportOptions_YAML(t *testing.T) {
	in := DefaultImportOptions()
	in.NormalsMode = NormalsIgnore
	in.TangentsMode = TangentsNone

	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "normals_mode: ignore")

	var out ImportOptions
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var bad ImportOptions
	assert.Error(t, yaml.Unmarshal([]byte("normals_mode: sometimes\n"), &bad))
}

func TestExportOptions_YAML(t *testing.T) {
	var opts ExportOptions
	require.NoError(t, yaml.Unmarshal([]byte("compression: zstd\nblock_size: 12\n"), &opts))
	assert.Equal(t, ExportOptions{Compression: nvc.CompressionZstd, BlockSize: 12}, opts)
}

func TestNodeType_String(t *testing.T) {
	assert.Equal(t, "Mesh", NodeMesh.String())
	assert.Equal(t, "NodeType(9)", NodeType(9).String())
	assert.False(t, NodeType(9).Valid())
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parkstone-group/sitescore-cli/internal/refdata"
)

func TestFormatDatasets(t *testing.T) {
	infos := []refdata.DatasetInfo{
		{Name: "designations", Path: "data/designations.csv", Rows: 9100, Digest: "0a1b2c3d4e5f60718293a4b5c6d7e8f9"},
		{Name: "projects", Path: "data/projects.csv", Rows: 412, Digest: "ffeeddccbbaa99887766554433221100"},
	}

	var buf bytes.Buffer
	formatDatasets(&buf, infos, "deadbeefdeadbeefdeadbeefdeadbeef")

	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "ROWS")
	assert.Contains(t, output, "DIGEST")
	assert.Contains(t, output, "designations")
	assert.Contains(t, output, "9100")
	assert.Contains(t, output, "data/projects.csv")
	assert.Contains(t, output, "Fingerprint: deadbeefdeadbeefdeadbeefdeadbeef")

	// Digests display truncated; the full value belongs to the fingerprint.
	assert.Contains(t, output, "0a1b2c3d")
	assert.NotContains(t, output, "0a1b2c3d4e5f")
}

func TestFormatDatasets_MissingDigest(t *testing.T) {
	infos := []refdata.DatasetInfo{
		{Name: "parcels", Path: "data/parcels.shp", Rows: 0, Digest: ""},
	}

	var buf bytes.Buffer
	formatDatasets(&buf, infos, "deadbeef")

	assert.Contains(t, buf.String(), "-")
	assert.Contains(t, buf.String(), "data/parcels.shp")
}

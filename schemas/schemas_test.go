package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	schemaFiles, err := filepath.Glob("*.schema.json")
	require.NoError(t, err)
	require.NotEmpty(t, schemaFiles)

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v interface{}
			err = json.Unmarshal(data, &v)
			assert.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
		})
	}
}

func TestRead_Embedded(t *testing.T) {
	embedded, err := Read(ParsedOpportunities)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(ParsedOpportunities)
	require.NoError(t, err)
	assert.Equal(t, onDisk, embedded)

	_, err = Read("missing.schema.json")
	assert.Error(t, err)
}

// Package schemas holds the JSON Schemas of the files the CLI writes.
package schemas

import "embed"

// ParsedOpportunities is the file name of the parse export schema.
const ParsedOpportunities = "parsed_opportunities.schema.json"

//go:embed *.schema.json
var FS embed.FS

// Read returns the content of an embedded schema.
func Read(name string) ([]byte, error) {
	return FS.ReadFile(name)
}

// Package schemas embeds the JSON Schemas for the knapsack wire formats.
package schemas

import "embed"

// Names of the embedded schema files
const (
	Instance = "instance.schema.json"
	Dataset  = "dataset.schema.json"
	Result   = "result.schema.json"
)

// FS holds every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS

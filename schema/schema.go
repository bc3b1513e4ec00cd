// Package schema holds the JSON-schema text for every request body the API
// accepts, compiled once at package init: a schema typo is a programmer
// error caught at process start, not a runtime condition to recover from.
package schema

import "github.com/xeipuuv/gojsonschema"

const CreateJobSchemaDefinition = `{
	"type": "object",
	"properties": {
		"brief": {
			"type": "object",
			"properties": {
				"topic": {"type": "string"},
				"audience": {"type": "string"},
				"goal": {"type": "string"},
				"tone": {"type": "string"},
				"language": {"type": "string"},
				"aspectRatio": {"type": "string", "enum": ["16:9", "9:16", "1:1", "4:3"]}
			},
			"additionalProperties": false,
			"type": "object",
			"required": ["topic", "aspectRatio"]
		},
		"planSpec": {
			"type": "object",
			"properties": {
				"targetDurationSeconds": {"type": "number"},
				"pacing": {"type": "string", "enum": ["slow", "normal", "fast"]},
				"density": {"type": "string", "enum": ["sparse", "normal", "dense"]},
				"style": {"type": "string"}
			},
			"additionalProperties": false
		},
		"voiceSpec": {
			"type": "object",
			"properties": {
				"voice": {"type": "string"},
				"rate": {"type": "number"},
				"pitch": {"type": "number"},
				"interSentencePause": {"type": "number"}
			},
			"additionalProperties": false
		},
		"renderSpec": {
			"type": "object",
			"properties": {
				"width": {"type": "integer"},
				"height": {"type": "integer"},
				"container": {"type": "string"},
				"videoBitrate": {"type": "integer"},
				"audioBitrate": {"type": "integer"},
				"fps": {"type": "integer"},
				"codec": {"type": "string"},
				"qualityLevel": {"type": "integer"},
				"sceneCut": {"type": "boolean"}
			},
			"additionalProperties": false
		},
		"correlationId": {"type": "string"}
	},
	"additionalProperties": false,
	"required": ["brief"]
}`

const ExportStartSchemaDefinition = `{
	"type": "object",
	"properties": {
		"inputFile": {"type": "string"},
		"timeline": {"type": "string"},
		"presetName": {"type": "string"},
		"correlationId": {"type": "string"}
	},
	"additionalProperties": false,
	"required": ["presetName"],
	"anyOf": [
		{"required": ["inputFile"]},
		{"required": ["timeline"]}
	]
}`

var inputSchemas = map[string]string{
	"CreateJob":   CreateJobSchemaDefinition,
	"ExportStart": ExportStartSchemaDefinition,
}

func compile() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, len(inputSchemas))
	for name, text := range inputSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
		if err != nil {
			panic(err) // fix schema text
		}
		compiled[name] = s
	}
	return compiled
}

var compiled = compile()

// Get returns the compiled schema for name, or nil if name isn't a known
// request body schema.
func Get(name string) *gojsonschema.Schema {
	return compiled[name]
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func validate(t *testing.T, name, body string) *gojsonschema.Result {
	t.Helper()
	s := Get(name)
	require.NotNil(t, s)
	result, err := s.Validate(gojsonschema.NewStringLoader(body))
	require.NoError(t, err)
	return result
}

func TestCreateJobSchemaAcceptsMinimalValidBody(t *testing.T) {
	result := validate(t, "CreateJob", `{"brief": {"topic": "solar power", "aspectRatio": "16:9"}}`)
	require.True(t, result.Valid())
}

func TestCreateJobSchemaRejectsMissingBrief(t *testing.T) {
	result := validate(t, "CreateJob", `{"planSpec": {"targetDurationSeconds": 30}}`)
	require.False(t, result.Valid())
}

func TestCreateJobSchemaRejectsUnknownAspectRatio(t *testing.T) {
	result := validate(t, "CreateJob", `{"brief": {"topic": "x", "aspectRatio": "21:9"}}`)
	require.False(t, result.Valid())
}

func TestCreateJobSchemaRejectsAdditionalTopLevelProperties(t *testing.T) {
	result := validate(t, "CreateJob", `{"brief": {"topic": "x", "aspectRatio": "16:9"}, "unknownField": true}`)
	require.False(t, result.Valid())
}

func TestExportStartSchemaRequiresPresetAndOneSource(t *testing.T) {
	result := validate(t, "ExportStart", `{"inputFile": "/tmp/a.mp4", "presetName": "youtube-1080p"}`)
	require.True(t, result.Valid())

	result = validate(t, "ExportStart", `{"presetName": "youtube-1080p"}`)
	require.False(t, result.Valid())
}

func TestExportStartSchemaAcceptsTimelineInsteadOfInputFile(t *testing.T) {
	result := validate(t, "ExportStart", `{"timeline": "scene-by-scene-json", "presetName": "tiktok"}`)
	require.True(t, result.Valid())
}

func TestGetReturnsNilForUnknownSchema(t *testing.T) {
	require.Nil(t, Get("NoSuchSchema"))
}

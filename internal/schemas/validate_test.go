package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllSchemasCompile(t *testing.T) {
	for _, name := range []string{EnvelopeEvent, BackgroundCheckEvent, WorkspaceRecordEvent, SheetRowEvent} {
		t.Run(name, func(t *testing.T) {
			_, err := load(name)
			assert.NoError(t, err)
		})
	}
}

func TestValidate_Envelope(t *testing.T) {
	valid := `{"event": "envelope-completed", "data": {"envelopeId": "abc", "envelopeSummary": {"status": "completed"}}}`
	assert.NoError(t, Validate(EnvelopeEvent, []byte(valid)))

	err := Validate(EnvelopeEvent, []byte(`{"event": "envelope-sent", "data": {}}`))
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Errors)
}

func TestValidate_BackgroundCheck(t *testing.T) {
	valid := `{"type": "report.completed", "data": {"object": {"id": "r1", "object": "report", "status": "clear"}}}`
	assert.NoError(t, Validate(BackgroundCheckEvent, []byte(valid)))
	assert.Error(t, Validate(BackgroundCheckEvent, []byte(`{"type": "report.completed"}`)))
}

func TestValidate_WorkspaceRecord(t *testing.T) {
	assert.NoError(t, Validate(WorkspaceRecordEvent, []byte(`{"record_id": "recABC123"}`)))
	assert.Error(t, Validate(WorkspaceRecordEvent, []byte(`{"record_id": "nope"}`)))
}

func TestValidate_SheetRow(t *testing.T) {
	valid := `{"sheet_id": "s1", "named_values": {"Email Address": ["a@example.com"]}}`
	assert.NoError(t, Validate(SheetRowEvent, []byte(valid)))
	assert.Error(t, Validate(SheetRowEvent, []byte(`{"sheet_id": "s1", "named_values": {}}`)))
	assert.Error(t, Validate(SheetRowEvent, []byte(`{"sheet_id": "s1", "named_values": {"Email": "x"}}`)))
}

func TestValidate_MalformedJSON(t *testing.T) {
	assert.Error(t, Validate(WorkspaceRecordEvent, []byte(`{not json`)))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	require.Error(t, err)
	var lerr *SchemaLoadError
	assert.True(t, errors.As(err, &lerr))
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "x"}`))

	err := ValidateJSONString(schema, `{"name": 1}`)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}

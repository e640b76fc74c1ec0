package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Date
		wantErr  bool
	}{
		{name: "calendar date", input: "2025-11-01", expected: NewDate(2025, time.November, 1)},
		{name: "timestamp truncated", input: "2025-11-01T00:00:00", expected: NewDate(2025, time.November, 1)},
		{name: "surrounding spaces", input: " 2024-02-29 ", expected: NewDate(2024, time.February, 29)},
		{name: "invalid", input: "01/11/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	req := AnalysisRequest{UltimaCompRef: NewDate(2025, time.November, 1)}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"ultima_comp_ref":"2025-11-01"`)

	var p CalculationPreview
	require.NoError(t, json.Unmarshal([]byte(`{"ref_calculada": "2025-10-01", "preview": []}`), &p))
	assert.Equal(t, "2025-10-01", p.ReferenceDate.String())

	require.NoError(t, json.Unmarshal([]byte(`{"ref_calculada": ""}`), &p))
	assert.True(t, p.ReferenceDate.IsZero())
}

package idhash

import (
	"testing"
)

func TestComputeRecordID(t *testing.T) {
	tests := []struct {
		name      string
		runID     string
		personaID string
		date      string
		action    string
	}{
		{
			name:      "buy record",
			runID:     "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0",
			personaID: "guardian",
			date:      "2024-01-02",
			action:    "BUY",
		},
		{
			name:      "hold record",
			runID:     "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0",
			personaID: "degen",
			date:      "2024-03-15",
			action:    "HOLD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRecordID(tt.runID, tt.personaID, tt.date, tt.action)

			if len(got) != 64 {
				t.Errorf("ComputeRecordID() length = %d, want 64", len(got))
			}

			// Same inputs must produce the same output
			got2 := ComputeRecordID(tt.runID, tt.personaID, tt.date, tt.action)
			if got != got2 {
				t.Errorf("ComputeRecordID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeRecordID_DifferentInputs(t *testing.T) {
	base := ComputeRecordID("run", "persona", "2024-01-02", "BUY")

	if base == ComputeRecordID("other_run", "persona", "2024-01-02", "BUY") {
		t.Error("Different run should produce different hash")
	}
	if base == ComputeRecordID("run", "other_persona", "2024-01-02", "BUY") {
		t.Error("Different persona should produce different hash")
	}
	if base == ComputeRecordID("run", "persona", "2024-01-03", "BUY") {
		t.Error("Different date should produce different hash")
	}
	if base == ComputeRecordID("run", "persona", "2024-01-02", "SELL") {
		t.Error("Different action should produce different hash")
	}
}

package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRecordID computes a deterministic record_id using SHA256.
// Formula: SHA256(run_id|persona_id|date|action)
// Returns hex-encoded hash (64 characters).
//
// A persona produces exactly one record per simulated day, so the tuple is
// unique within a run and re-persisting a run yields the same IDs.
func ComputeRecordID(runID, personaID, date, action string) string {
	data := fmt.Sprintf("%s|%s|%s|%s", runID, personaID, date, action)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

package vault

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
)

// summaryInstruction is the subset of a journal summary element replay needs.
type summaryInstruction struct {
	Program string `json:"program"`
	Data    string `json:"data"`
}

// Calls decodes the vault instructions for program carried by a journaled
// transaction. Airdrops carry none. Instructions whose data does not
// decode are skipped.
func Calls(e ledger.JournalEntry, program address.Address) ([]Call, error) {
	if e.Kind != ledger.KindTransaction {
		return nil, nil
	}

	var ixs []summaryInstruction
	if err := json.Unmarshal([]byte(e.Summary), &ixs); err != nil {
		return nil, fmt.Errorf("seq %d: %w", e.Seq, err)
	}
	var calls []Call
	for _, ix := range ixs {
		if ix.Program != program.String() {
			continue
		}
		data, err := hex.DecodeString(ix.Data)
		if err != nil {
			return nil, fmt.Errorf("seq %d: %w", e.Seq, err)
		}
		call, err := DecodeCall(data)
		if err != nil {
			continue
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// Replay feeds every journaled vault instruction for program into r.
func Replay(entries []ledger.JournalEntry, program address.Address, r Recorder) error {
	for _, e := range entries {
		calls, err := Calls(e, program)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		for _, call := range calls {
			record(r, call, e.Status, e.ErrorCode)
		}
	}
	return nil
}

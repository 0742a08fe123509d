package harness

import (
	"context"
	"fmt"
	"strings"
)

// AssertionContext gives ledger-backed assertions access to the run.
type AssertionContext struct {
	Ctx     context.Context
	Harness *Harness
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventAirdrop:
				fmt.Fprintf(&buf, "  [%d] airdrop %s %d\n", event.Seq, event.Account, event.Lamports)
			case EventInstruction:
				fmt.Fprintf(&buf, "  [%d] %s by %s -> %s\n", event.Seq, event.Instruction, event.Owner, event.Outcome)
			}
		}
	}
	return buf.String()
}

// matches reports whether an instruction event satisfies the assertion's
// instruction, owner and outcome filters. Empty filters match anything.
func matches(event TraceEvent, a Assertion) bool {
	if event.Type != EventInstruction || event.Instruction != a.Instruction {
		return false
	}
	if a.Owner != "" && event.Owner != a.Owner {
		return false
	}
	if a.Outcome != "" && event.Outcome != a.Outcome {
		return false
	}
	return true
}

func describe(a Assertion) string {
	s := a.Instruction
	if a.Owner != "" {
		s += " by " + a.Owner
	}
	if a.Outcome != "" {
		s += " -> " + a.Outcome
	}
	return s
}

// assertTraceContains checks that at least one instruction event matches.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(assertion),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the instructions appear as a subsequence of
// the trace. Intervening instructions are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(assertion.Instructions) {
			break
		}
		if event.Type == EventInstruction && event.Instruction == assertion.Instructions[next] {
			next++
		}
	}
	if next < len(assertion.Instructions) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("instructions in order: %v", assertion.Instructions),
			Actual:   fmt.Sprintf("no %s after %v", assertion.Instructions[next], assertion.Instructions[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count instruction events match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describe(assertion)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalBalance checks the ledger balance of a labelled account.
func assertFinalBalance(actx *AssertionContext, assertion Assertion) error {
	addr, err := actx.Harness.resolve(assertion.Account)
	if err != nil {
		return fmt.Errorf("final_balance: %w", err)
	}
	got, err := actx.Harness.runtime.Balance(actx.Ctx, addr)
	if err != nil {
		return fmt.Errorf("final_balance: %w", err)
	}
	if got != *assertion.Lamports {
		return &AssertionError{
			Type:     AssertFinalBalance,
			Expected: fmt.Sprintf("%s holds %d", assertion.Account, *assertion.Lamports),
			Actual:   fmt.Sprintf("%s holds %d", assertion.Account, got),
		}
	}
	return nil
}

// assertFinalState checks whether the owner's vault record exists.
func assertFinalState(actx *AssertionContext, assertion Assertion) error {
	owner, err := actx.Harness.resolve(assertion.Owner)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	st, err := actx.Harness.client.Inspect(actx.Ctx, owner)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	if st.Initialized != *assertion.Initialized {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s initialized=%t", assertion.Owner, *assertion.Initialized),
			Actual:   fmt.Sprintf("%s initialized=%t", assertion.Owner, st.Initialized),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a list of error messages for failed assertions.
// Ledger assertions require actx; trace assertions only need the result.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalBalance, AssertFinalState:
			switch {
			case actx == nil || actx.Harness == nil:
				err = fmt.Errorf("assertion[%d]: %s requires ledger context", i, assertion.Type)
			case assertion.Type == AssertFinalBalance:
				err = assertFinalBalance(actx, assertion)
			default:
				err = assertFinalState(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// allowanceRevertMarker is the revert reason the Marketplace contract emits
// when createSale runs without a sufficient ERC-20 allowance.
const allowanceRevertMarker = "Check token allowance"

// RevertError means the ledger accepted the call but the contract rejected it.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

// NetworkError means the call never completed.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// UserRejectedError means the signer declined to sign the transaction.
type UserRejectedError struct{}

func (e *UserRejectedError) Error() string {
	return "transaction rejected by signer"
}

// Classify maps a raw transport error onto the gateway taxonomy. Revert
// reasons are extracted when the node includes them in the error text.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var revert *RevertError
	var network *NetworkError
	var rejected *UserRejectedError
	if errors.As(err, &revert) || errors.As(err, &network) || errors.As(err, &rejected) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "user denied") || strings.Contains(lower, "user rejected"):
		return &UserRejectedError{}
	case strings.Contains(lower, "execution reverted"):
		return &RevertError{Reason: revertReason(msg)}
	default:
		return &NetworkError{Cause: err}
	}
}

// revertReason pulls the human-readable reason out of a node error like
// "execution reverted: Check token allowance".
func revertReason(msg string) string {
	idx := strings.Index(strings.ToLower(msg), "execution reverted")
	if idx < 0 {
		return ""
	}
	rest := msg[idx+len("execution reverted"):]
	rest = strings.TrimLeft(rest, ": ")
	return strings.TrimSpace(rest)
}

// IsAllowanceRevert reports whether err is the Marketplace's allowance-shortfall
// revert.
func IsAllowanceRevert(err error) bool {
	var revert *RevertError
	if !errors.As(err, &revert) {
		return false
	}
	return strings.Contains(revert.Reason, allowanceRevertMarker)
}

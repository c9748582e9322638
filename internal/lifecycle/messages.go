package lifecycle

import (
	"errors"
	"fmt"

	"github.com/vadiminshakov/gridmarket/internal/gateway"
)

// humanize turns a classified gateway error into the status text shown to the
// user. Revert reasons pass through filtered; raw transport errors never do.
func humanize(err error) string {
	var rejected *gateway.UserRejectedError
	if errors.As(err, &rejected) {
		return "Transaction rejected in wallet."
	}

	var revert *gateway.RevertError
	if errors.As(err, &revert) {
		if revert.Reason == "" {
			return "Transaction reverted by the contract."
		}
		return fmt.Sprintf("Transaction reverted: %s.", revert.Reason)
	}

	var network *gateway.NetworkError
	if errors.As(err, &network) {
		return "Network problem while talking to the ledger. Please try again."
	}

	return "Operation failed."
}

package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrReverted = errors.New("transaction reverted")
	ErrPending  = errors.New("transaction not confirmed before timeout")
)

type TxStatus int

const (
	TxPending TxStatus = iota
	TxConfirmed
	TxReverted
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	case TxReverted:
		return "reverted"
	default:
		return fmt.Sprintf("TxStatus(%d)", int(s))
	}
}

type TxResult struct {
	Hash          common.Hash
	Status        TxStatus
	Receipt       *types.Receipt
	Confirmations uint64
}

// Err maps a non-confirmed status to ErrPending or ErrReverted.
func (r TxResult) Err() error {
	switch r.Status {
	case TxConfirmed:
		return nil
	case TxReverted:
		return fmt.Errorf("%s: %w", r.Hash.Hex(), ErrReverted)
	default:
		return fmt.Errorf("%s: %w", r.Hash.Hex(), ErrPending)
	}
}

// RevertError is a VM-level revert reported by the node while simulating a
// call or transaction.
type RevertError struct {
	Reason string
	Err    error
}

func newRevertError(err error) *RevertError {
	return &RevertError{Reason: revertReason(err), Err: err}
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return "execution reverted: " + e.Reason
	}
	return "execution reverted"
}

func (e *RevertError) Unwrap() error { return e.Err }

func (e *RevertError) Is(target error) bool { return target == ErrReverted }

// IsRevert reports whether err is an EVM revert, either already classified
// or as returned by a JSON-RPC node for eth_call / eth_estimateGas.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReverted) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func revertReason(err error) string {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return ""
	}
	data, ok := de.ErrorData().(string)
	if !ok {
		return ""
	}
	reason, err := abi.UnpackRevert(common.FromHex(data))
	if err != nil {
		return ""
	}
	return reason
}

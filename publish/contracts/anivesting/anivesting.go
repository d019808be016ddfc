package anivesting

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/contracts"
)

const (
	name           = "AniwarVesting"
	DeployGasLimit = 3_000_000
	TxGasLimit     = 250_000
)

var (
	funcCreateVestingSchedule = w3.MustNewFunc(
		"createVestingSchedule(address,uint256,uint256)", "",
	)
	funcGetVestingSchedule = w3.MustNewFunc(
		"getVestingScheduleByAddressAndIndex(address,uint256)",
		"address,uint256,uint256,uint256,uint256,bool",
	)
)

type (
	// Vesting releases Aniwar tokens it holds to beneficiaries over time.
	Vesting struct {
		publish.Contract
	}

	Schedule struct {
		Beneficiary    common.Address
		Start          *big.Int
		End            *big.Int
		Duration       *big.Int
		AmountReleased *big.Int
		Revoked        bool
	}
)

func Name() string { return name }

func Deploy(ctx context.Context, c *publish.Client, from *publish.Account, token common.Address, opts contracts.Options) (*Vesting, error) {
	contract, err := contracts.Deploy(ctx, c, from, name, DeployGasLimit, opts, token)
	if err != nil {
		if contract.Address != (common.Address{}) {
			return At(c, contract.Address), err
		}
		return nil, err
	}
	return At(c, contract.Address), nil
}

func At(c *publish.Client, addr common.Address) *Vesting {
	return &Vesting{publish.NewContract(c, addr)}
}

func (v *Vesting) CreateVestingSchedule(ctx context.Context, from *publish.Account, beneficiary common.Address, duration, amount *big.Int) (publish.TxResult, error) {
	return v.Transact(ctx, from, funcCreateVestingSchedule, TxGasLimit, beneficiary, duration, amount)
}

func (v *Vesting) ScheduleByAddressAndIndex(ctx context.Context, beneficiary common.Address, index int64) (Schedule, error) {
	var s Schedule
	err := v.Call(ctx, funcGetVestingSchedule, []any{beneficiary, big.NewInt(index)},
		&s.Beneficiary, &s.Start, &s.End, &s.Duration, &s.AmountReleased, &s.Revoked)
	if err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func (s Schedule) Equal(o Schedule) bool {
	return s.Beneficiary == o.Beneficiary &&
		cmpInt(s.Start, o.Start) &&
		cmpInt(s.End, o.End) &&
		cmpInt(s.Duration, o.Duration) &&
		cmpInt(s.AmountReleased, o.AmountReleased) &&
		s.Revoked == o.Revoked
}

func cmpInt(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

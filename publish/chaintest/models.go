package chaintest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"
)

var (
	fnTransfer    = w3.MustNewFunc("transfer(address,uint256)", "bool")
	fnBalanceOf   = w3.MustNewFunc("balanceOf(address)", "uint256")
	fnTotalSupply = w3.MustNewFunc("totalSupply()", "uint256")
	fnName        = w3.MustNewFunc("name()", "string")
	fnSymbol      = w3.MustNewFunc("symbol()", "string")
	fnDecimals    = w3.MustNewFunc("decimals()", "uint8")
	fnPause       = w3.MustNewFunc("pause()", "")
	fnUnpause     = w3.MustNewFunc("unpause()", "")
	fnPaused      = w3.MustNewFunc("paused()", "bool")

	fnAddAllowedTokens = w3.MustNewFunc("addAllowedTokens(address)", "")
	fnAllowedTokens    = w3.MustNewFunc("allowedTokens(uint256)", "address")

	fnCreateVestingSchedule = w3.MustNewFunc("createVestingSchedule(address,uint256,uint256)", "")
	fnGetVestingSchedule    = w3.MustNewFunc("getVestingScheduleByAddressAndIndex(address,uint256)", "address,uint256,uint256,uint256,uint256,bool")

	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

func selector(input []byte) [4]byte {
	var s [4]byte
	copy(s[:], input)
	return s
}

func encode(typeNames []string, vals ...any) ([]byte, error) {
	args := make(abi.Arguments, len(typeNames))
	for i, name := range typeNames {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, err
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args.Pack(vals...)
}

func mustEncode(typeNames []string, vals ...any) []byte {
	out, err := encode(typeNames, vals...)
	if err != nil {
		panic(err)
	}
	return out
}

type token struct {
	owner    common.Address
	pausable bool
	paused   bool
	supply   *big.Int
	balances map[common.Address]*big.Int
}

func newToken(owner common.Address, pausable bool) *token {
	return &token{
		owner:    owner,
		pausable: pausable,
		supply:   new(big.Int).Set(TokenSupply),
		balances: map[common.Address]*big.Int{owner: new(big.Int).Set(TokenSupply)},
	}
}

func (t *token) balance(addr common.Address) *big.Int {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (t *token) call(_ *Chain, self, from common.Address, input []byte, write bool) ([]byte, []*types.Log, error) {
	switch selector(input) {
	case fnTransfer.Selector:
		var (
			to     common.Address
			amount *big.Int
		)
		if err := fnTransfer.DecodeArgs(input, &to, &amount); err != nil {
			return nil, nil, revert("bad calldata")
		}
		if t.paused {
			return nil, nil, revert("Pausable: paused")
		}
		if t.balance(from).Cmp(amount) < 0 {
			return nil, nil, revert("ERC20: transfer amount exceeds balance")
		}
		var logs []*types.Log
		if write {
			t.balances[from] = new(big.Int).Sub(t.balance(from), amount)
			t.balances[to] = new(big.Int).Add(t.balance(to), amount)
			logs = append(logs, &types.Log{
				Address: self,
				Topics:  []common.Hash{transferTopic, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
				Data:    common.LeftPadBytes(amount.Bytes(), 32),
			})
		}
		return mustEncode([]string{"bool"}, true), logs, nil

	case fnBalanceOf.Selector:
		var owner common.Address
		if err := fnBalanceOf.DecodeArgs(input, &owner); err != nil {
			return nil, nil, revert("bad calldata")
		}
		return mustEncode([]string{"uint256"}, new(big.Int).Set(t.balance(owner))), nil, nil

	case fnTotalSupply.Selector:
		return mustEncode([]string{"uint256"}, new(big.Int).Set(t.supply)), nil, nil

	case fnName.Selector:
		return mustEncode([]string{"string"}, "Aniwar"), nil, nil

	case fnSymbol.Selector:
		return mustEncode([]string{"string"}, "ANI"), nil, nil

	case fnDecimals.Selector:
		return mustEncode([]string{"uint8"}, uint8(18)), nil, nil

	case fnPaused.Selector:
		if !t.pausable {
			break
		}
		return mustEncode([]string{"bool"}, t.paused), nil, nil

	case fnPause.Selector, fnUnpause.Selector:
		if !t.pausable {
			break
		}
		pause := selector(input) == fnPause.Selector
		if from != t.owner {
			return nil, nil, revert("Ownable: caller is not the owner")
		}
		if pause && t.paused {
			return nil, nil, revert("Pausable: paused")
		}
		if !pause && !t.paused {
			return nil, nil, revert("Pausable: not paused")
		}
		if write {
			t.paused = pause
		}
		return nil, nil, nil
	}
	return nil, nil, revert("function selector was not recognized")
}

type farm struct {
	owner       common.Address
	rewardToken common.Address
	allowed     []common.Address
}

func (f *farm) call(_ *Chain, _, from common.Address, input []byte, write bool) ([]byte, []*types.Log, error) {
	switch selector(input) {
	case fnAddAllowedTokens.Selector:
		var tok common.Address
		if err := fnAddAllowedTokens.DecodeArgs(input, &tok); err != nil {
			return nil, nil, revert("bad calldata")
		}
		if from != f.owner {
			return nil, nil, revert("Ownable: caller is not the owner")
		}
		if write {
			f.allowed = append(f.allowed, tok)
		}
		return nil, nil, nil

	case fnAllowedTokens.Selector:
		var idx *big.Int
		if err := fnAllowedTokens.DecodeArgs(input, &idx); err != nil {
			return nil, nil, revert("bad calldata")
		}
		if !idx.IsInt64() || idx.Int64() >= int64(len(f.allowed)) {
			return nil, nil, revert("index out of bounds")
		}
		return mustEncode([]string{"address"}, f.allowed[idx.Int64()]), nil, nil
	}
	return nil, nil, revert("function selector was not recognized")
}

type (
	schedule struct {
		beneficiary    common.Address
		start          *big.Int
		end            *big.Int
		duration       *big.Int
		amountReleased *big.Int
		revoked        bool
	}

	vesting struct {
		owner     common.Address
		token     common.Address
		scheduled *big.Int
		schedules map[common.Address][]schedule
	}
)

func (v *vesting) call(ch *Chain, self, from common.Address, input []byte, write bool) ([]byte, []*types.Log, error) {
	switch selector(input) {
	case fnCreateVestingSchedule.Selector:
		var (
			beneficiary      common.Address
			duration, amount *big.Int
		)
		if err := fnCreateVestingSchedule.DecodeArgs(input, &beneficiary, &duration, &amount); err != nil {
			return nil, nil, revert("bad calldata")
		}
		if from != v.owner {
			return nil, nil, revert("Ownable: caller is not the owner")
		}
		if duration.Sign() <= 0 {
			return nil, nil, revert("TokenVesting: duration must be > 0")
		}
		scheduled := v.scheduled
		if scheduled == nil {
			scheduled = new(big.Int)
		}
		var held *big.Int
		if tok, ok := ch.tokenAt(v.token); ok {
			held = tok.balance(self)
		} else {
			held = new(big.Int)
		}
		if new(big.Int).Add(scheduled, amount).Cmp(held) > 0 {
			return nil, nil, revert("TokenVesting: cannot create vesting schedule because not sufficient tokens")
		}
		if write {
			v.scheduled = new(big.Int).Add(scheduled, amount)
			v.schedules[beneficiary] = append(v.schedules[beneficiary], schedule{
				beneficiary:    beneficiary,
				start:          new(big.Int),
				end:            new(big.Int),
				duration:       new(big.Int).Set(duration),
				amountReleased: new(big.Int).Set(amount),
			})
		}
		return nil, nil, nil

	case fnGetVestingSchedule.Selector:
		var (
			holder common.Address
			idx    *big.Int
		)
		if err := fnGetVestingSchedule.DecodeArgs(input, &holder, &idx); err != nil {
			return nil, nil, revert("bad calldata")
		}
		list := v.schedules[holder]
		if !idx.IsInt64() || idx.Int64() >= int64(len(list)) {
			return nil, nil, revert("TokenVesting: index out of bounds")
		}
		s := list[idx.Int64()]
		out := mustEncode(
			[]string{"address", "uint256", "uint256", "uint256", "uint256", "bool"},
			s.beneficiary, s.start, s.end, s.duration, s.amountReleased, s.revoked,
		)
		return out, nil, nil
	}
	return nil, nil, revert("function selector was not recognized")
}

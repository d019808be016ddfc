// Package opensea builds links to the OpenSea testnet asset viewer.
package opensea

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const assetFormat = "https://testnets.opensea.io/assets/%s/%s"

var (
	DefaultContract = common.Address{}
	DefaultTokenID  = big.NewInt(0)
)

// AssetURL returns the testnet viewer URL for one token of a contract. A nil
// tokenID means DefaultTokenID.
func AssetURL(contract common.Address, tokenID *big.Int) string {
	if tokenID == nil {
		tokenID = DefaultTokenID
	}
	return fmt.Sprintf(assetFormat, contract.Hex(), tokenID.String())
}

func DefaultAssetURL() string {
	return AssetURL(DefaultContract, DefaultTokenID)
}

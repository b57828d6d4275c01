package donation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// contractJSON is the donation contract surface this service uses: one
// payable write and one view returning the full donation list.
const contractJSON = `[
	{
		"inputs": [{"internalType": "string", "name": "message", "type": "string"}],
		"name": "donate",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getAllDonations",
		"outputs": [{
			"components": [
				{"internalType": "address", "name": "donor", "type": "address"},
				{"internalType": "uint256", "name": "amount", "type": "uint256"},
				{"internalType": "uint256", "name": "timestamp", "type": "uint256"},
				{"internalType": "string", "name": "message", "type": "string"}
			],
			"internalType": "struct DonationContract.Donation[]",
			"name": "",
			"type": "tuple[]"
		}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var contractABI = mustParseABI(contractJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded contract ABI: %v", err))
	}
	return parsed
}

// ContractABI returns the parsed donation contract ABI.
func ContractABI() abi.ABI {
	return contractABI
}

// PackDonate encodes the calldata for donate(message). The donated value
// rides on the transaction itself, not the calldata.
func PackDonate(message string) ([]byte, error) {
	data, err := contractABI.Pack("donate", message)
	if err != nil {
		return nil, fmt.Errorf("failed to pack donate call: %w", err)
	}
	return data, nil
}

package domain

import "github.com/ethereum/go-ethereum/common"

// TxEnvelope is the part of a transaction the classifier needs: who signed it
// and which contract it called.
type TxEnvelope struct {
	Hash common.Hash
	From common.Address
	// To is nil for contract creations.
	To *common.Address
}

// Target returns the called contract, or the zero address for creations.
func (t *TxEnvelope) Target() common.Address {
	if t == nil || t.To == nil {
		return common.Address{}
	}
	return *t.To
}

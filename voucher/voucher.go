// Package voucher implements the off-chain-authorized claim path. A trusted
// validator key signs a digest binding a claimant, the ids being claimed,
// the claim class (which cross-chain lane the ids belong to) and a chain
// discriminator. The engine verifies the signature and refuses any digest
// not signed by the configured validator.
//
// Verification is pure: the package never records consumption. Replay
// protection lives in the inventory ledger's claim records, so the validator
// logic stays stateless and independently testable.
//
// The digest layouts below are the wire contract with the off-chain issuer.
// Changing a single byte invalidates every outstanding voucher.
package voucher

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature does not recover to the
// configured validator address.
var ErrInvalidSignature = errors.New("Invalid signature")

// SignatureLength is the expected [R || S || V] signature size.
const SignatureLength = 65

// ClaimClass identifies which reserved lane a voucher claims from.
type ClaimClass uint8

// Claim classes mirror the chains the original collection lived on.
const (
	ClassEthereum ClaimClass = 1
	ClassPoa      ClaimClass = 2
	ClassTron     ClaimClass = 3
)

func uint256Bytes(v uint64) []byte {
	return common.BigToHash(new(big.Int).SetUint64(v)).Bytes()
}

// EncodeForSignature serializes a claim tuple into the digest the validator
// signs. Layout, packed with no separators:
//
//	claimant (20 bytes) ∥ each id as uint256 ∥ class (1 byte) ∥ chainID as uint256
//
// The id order is part of the digest on purpose: a voucher authorizes one
// specific claim instance, not a set.
func EncodeForSignature(claimant common.Address, ids []uint64, class ClaimClass, chainID uint64) common.Hash {
	packed := make([]byte, 0, 20+32*len(ids)+1+32)
	packed = append(packed, claimant.Bytes()...)
	for _, id := range ids {
		packed = append(packed, uint256Bytes(id)...)
	}
	packed = append(packed, byte(class))
	packed = append(packed, uint256Bytes(chainID)...)
	return crypto.Keccak256Hash(packed)
}

// EncodePurchase serializes an origin-chain purchase authorization:
//
//	buyer (20 bytes) ∥ quantity as uint256 ∥ nonce as uint256 ∥ cost as uint256
//
// The nonce makes each purchase voucher single-use; cost binds the price the
// validator quoted so the buyer cannot underpay with a stale signature.
func EncodePurchase(buyer common.Address, quantity uint64, nonce uint64, cost *big.Int) common.Hash {
	packed := make([]byte, 0, 20+32*3)
	packed = append(packed, buyer.Bytes()...)
	packed = append(packed, uint256Bytes(quantity)...)
	packed = append(packed, uint256Bytes(nonce)...)
	packed = append(packed, common.BigToHash(cost).Bytes()...)
	return crypto.Keccak256Hash(packed)
}

// Verify recovers the signer of sig over digest and checks it against the
// expected validator address. The V byte is accepted in both raw (0/1) and
// Ethereum (27/28) form.
func Verify(digest common.Hash, sig []byte, validator common.Address) error {
	if len(sig) != SignatureLength {
		return ErrInvalidSignature
	}
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return ErrInvalidSignature
	}
	if crypto.PubkeyToAddress(*pub) != validator {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces a signature Verify accepts. It is the issuer side of the
// protocol, used by the CLI tooling and the tests.
func Sign(digest common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(digest.Bytes(), key)
}

// Package ammtypes defines the opaque identifiers shared across the AMM
// core: token identifiers (totally ordered, for registry canonicalization),
// and the derived pool/position identifiers.
//
// Token identifiers reuse github.com/ethereum/go-ethereum/common.Address,
// the same representation the teacher's protocols/tokenregistry package
// uses for tokens; pool and position identifiers are common.Hash values
// derived deterministically with Keccak256, the same primitive Uniswap
// itself uses to compute deterministic pair addresses.
package ammtypes

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TokenID is an opaque, totally-ordered token identifier.
type TokenID = common.Address

// PoolID is an opaque, collision-resistant pool identifier.
type PoolID = common.Hash

// PositionID is an opaque, collision-resistant position identifier.
type PositionID = common.Hash

// CompareTokens returns -1, 0 or 1 as a sorts before, equals, or sorts
// after b, using the byte-wise order of the two addresses. This is the
// total order the pool registry canonicalizes pairs on (§4.6/§9).
func CompareTokens(a, b TokenID) int {
	return bytes.Compare(a[:], b[:])
}

// CanonicalPair returns the two token ids in canonical (lo, hi) order.
// (A,B) and (B,A) always canonicalize to the same pair.
func CanonicalPair(a, b TokenID) (lo, hi TokenID) {
	if CompareTokens(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// DerivePoolID computes a deterministic, collision-resistant pool id
// from its canonical key. Two register_pool calls for the same
// canonical (token_lo, token_hi, fee_bps) triple always derive the same
// id, which is what lets the registry detect duplicates by key rather
// than by id.
func DerivePoolID(tokenLo, tokenHi TokenID, feeBps uint64) PoolID {
	var feeBytes [8]byte
	binary.BigEndian.PutUint64(feeBytes[:], feeBps)
	return crypto.Keccak256Hash(tokenLo[:], tokenHi[:], feeBytes[:])
}

// DerivePositionID computes a deterministic position id from the owning
// pool id and a monotonically increasing per-pool mint nonce. The nonce
// guarantees uniqueness across positions minted against the same pool.
func DerivePositionID(poolID PoolID, mintNonce uint64) PositionID {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], mintNonce)
	return crypto.Keccak256Hash(poolID[:], nonceBytes[:])
}

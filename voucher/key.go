// Validator key handling. The engine only ever stores the validator's
// address, but the CLI tooling and deployment records pass the full public
// key around as hex, so the Key type keeps the raw bytes and derives the
// address on demand.
package voucher

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key is an uncompressed secp256k1 public key of a voucher validator.
type Key struct {
	Raw []byte
}

// Empty checks if the key is uninitialized.
func (k Key) Empty() bool {
	return len(k.Raw) == 0
}

// String returns the hexadecimal representation, prefixed with "0x".
func (k Key) String() string {
	return "0x" + common.Bytes2Hex(k.Raw)
}

// Address derives the Ethereum-style address that signatures verify against.
func (k Key) Address() (common.Address, error) {
	pub, err := crypto.UnmarshalPubkey(k.Raw)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Copy creates a deep copy of the Key. Raw is a slice, so a plain
// assignment would share the underlying memory.
func (k Key) Copy() Key {
	return Key{Raw: common.CopyBytes(k.Raw)}
}

// KeyFromString parses a hex string (with or without "0x" prefix).
func KeyFromString(str string) (Key, error) {
	return KeyFromBytes(common.FromHex(str))
}

// KeyFromBytes reconstructs a Key from raw bytes. The bytes must be a
// 65-byte uncompressed point starting with 0x04.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) == 0 {
		return Key{}, errors.New("empty validator key")
	}
	if len(b) != 65 || b[0] != 0x04 {
		return Key{}, errors.New("validator key must be a 65-byte uncompressed secp256k1 point")
	}
	return Key{Raw: b}, nil
}

// MarshalText implements encoding.TextMarshaler so a Key serializes as a
// hex string in JSON config and deployment records.
func (k *Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(input []byte) error {
	res, err := KeyFromString(string(input))
	if err != nil {
		return err
	}
	*k = res
	return nil
}

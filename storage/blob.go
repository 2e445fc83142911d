package storage

import (
	"github.com/ndujaLabs/everdragons2-core/inventory"
	"github.com/ndujaLabs/everdragons2-core/utils/codec"
)

// encodeClaimed packs the per-lane claim bitmaps into one compact blob.
func encodeClaimed(claimed map[inventory.Lane][]uint64) []byte {
	w := codec.NewWriter()
	w.Uint64(uint64(len(claimed)))
	for lane := inventory.LaneEthereum; lane <= inventory.LaneGiveaway; lane++ {
		words, ok := claimed[lane]
		if !ok {
			continue
		}
		w.Uint64(uint64(lane))
		w.Uint64s(words)
	}
	return w.Bytes()
}

func decodeClaimed(b []byte) (map[inventory.Lane][]uint64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	r := codec.NewReader(b)
	n, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	claimed := make(map[inventory.Lane][]uint64, n)
	for i := uint64(0); i < n; i++ {
		lane, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		words, err := r.Uint64s()
		if err != nil {
			return nil, err
		}
		claimed[inventory.Lane(lane)] = words
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return claimed, nil
}

func encodeNonces(nonces []uint64) []byte {
	w := codec.NewWriter()
	w.Uint64s(nonces)
	return w.Bytes()
}

func decodeNonces(b []byte) ([]uint64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	r := codec.NewReader(b)
	nonces, err := r.Uint64s()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return nonces, nil
}

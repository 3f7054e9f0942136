// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"github.com/luxfi/ids"
	"github.com/luxfi/sampler"
)

var _ Sampler = (*seededSampler)(nil)

// Sampler chooses the indexes oracles are assigned and the index a status
// request is addressed to.
type Sampler interface {
	// OracleIndexes returns [count] distinct indexes in [0, limit).
	OracleIndexes(oracle ids.ShortID, count, limit uint8) []uint8
	// RequestIndex returns an index in [0, limit). Equal inputs must return
	// equal indexes.
	RequestIndex(airline ids.ShortID, flight string, timestamp uint64, limit uint8) uint8
}

type seededSampler struct {
	seed uint64
}

// NewSampler returns a Sampler whose outputs depend only on [seed] and the
// arguments, so restarts reproduce the same assignments.
func NewSampler(seed uint64) Sampler {
	return &seededSampler{seed: seed}
}

// OracleIndexes returns nil if [count] exceeds [limit].
func (s *seededSampler) OracleIndexes(oracle ids.ShortID, count, limit uint8) []uint8 {
	source := rand.New(rand.NewPCG(s.seed, binary.BigEndian.Uint64(oracle[:8])))
	uniform := sampler.NewDeterministicUniform(source)
	uniform.Initialize(uint64(limit))
	sampled, _ := uniform.Sample(int(count))
	if len(sampled) != int(count) {
		return nil
	}

	indexes := make([]uint8, count)
	for i, index := range sampled {
		indexes[i] = uint8(index)
	}
	return indexes
}

func (s *seededSampler) RequestIndex(airline ids.ShortID, flight string, timestamp uint64, limit uint8) uint8 {
	buf := make([]byte, 0, 16+len(airline)+len(flight))
	buf = binary.BigEndian.AppendUint64(buf, s.seed)
	buf = append(buf, airline[:]...)
	buf = binary.BigEndian.AppendUint64(buf, timestamp)
	buf = append(buf, flight...)
	hash := sha256.Sum256(buf)
	return uint8(binary.BigEndian.Uint64(hash[:8]) % uint64(limit))
}

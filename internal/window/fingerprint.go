package window

import "github.com/go-sod/seqwin/internal/byteutil"

// Fingerprint hashes the shape, sample start indices and every value of the
// set. Two extractions of the same partition with the same window lengths
// produce the same fingerprint.
func (s *SampleSet) Fingerprint() [32]byte {
	h := byteutil.NewHasher()
	h.Int(s.n)
	h.Int(s.nIn)
	h.Int(s.nOut)
	h.Int(s.nf)
	for _, start := range s.starts {
		h.Int(start)
	}
	h.Floats(s.inputs)
	h.Floats(s.outputs)
	return h.Sum()
}

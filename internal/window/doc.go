// Package window turns one contiguous partition of an ordered table into
// fixed-length (input window, output window) samples for sequence-to-sequence
// forecasting.
//
// For a partition of length L and window lengths nIn, nOut the extractor walks
// start index i from 0 while i+nIn+nOut-1 <= L and emits:
//
//	input  = feature rows [i, i+nIn)
//	output = target values [i+nIn-1, i+nIn-1+nOut)
//
// The first output step shares its row with the last input step. The overlap
// is part of the sample layout consumers train on and must stay as it is.
// Trailing windows that would run past L are dropped, never padded, so a
// partition yields max(0, L-nIn-nOut+2) samples. A partition shorter than
// nIn+nOut-1 yields an empty SampleSet, which is a valid result.
//
// Extraction reads its source and writes only into the SampleSet it
// allocates, so train, validation and test partitions can be windowed
// concurrently.
package window

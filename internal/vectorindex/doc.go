// Package vectorindex provides the persisted index file format and
// scoring helpers shared by the vector index backends.
//
// Two backends implement the driven.VectorIndex port:
//
//   - bruteforce: exact O(n) scan, correct and fast enough below
//     roughly 100K vectors.
//   - ivf: inverted-file index with k-means coarse clustering for
//     larger corpora. Approximate for unscoped queries, exact within
//     a document scope.
//
// The choice of backend is configuration, not contract: both order
// results by inner product on unit-normalised vectors and share the
// same on-disk format.
package vectorindex

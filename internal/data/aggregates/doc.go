// Package aggregates implements the curriculum and profile write boundaries.
//
// Every multi-row mutation (sibling swaps, subtree and set cascades, role
// approval, parent link replacement, profile deletion) runs inside one
// transaction through executeWrite, and failures are mapped to
// domain/aggregates error codes before they reach services.
package aggregates

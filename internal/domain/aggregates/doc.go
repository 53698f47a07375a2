// Package aggregates defines the write boundaries of the academy domain.
//
// Each aggregate owns the transaction of its writes so that tree reordering,
// cascading deletes and role changes are applied all-or-nothing.
package aggregates

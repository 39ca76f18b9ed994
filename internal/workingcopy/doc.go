// Package workingcopy implements the mutable working-copy layer: change
// tracking via capture triggers, the meta-diff classifier that decides
// between in-place updates and full table rebuilds, and the column aligner
// that reconciles schemas across lossy backend type systems.
//
// Each relational backend (Postgres, MySQL, GeoPackage) implements the
// tilevault.WorkingCopyBackend capability interface; shared behavior lives
// in free functions here, not in an overridable base type. Backends are
// selected by configuration via New.
package workingcopy

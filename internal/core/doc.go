// Package core provides the slate pipeline: upload normalization, player
// reconciliation, lineup generation and export.
//
// This package holds all domain logic independent of any transport. It is
// used by the HTTP server, the slatectl CLI and tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Profiles: registered via [RegisterProfile], each describes the header
//     spellings of one upload source. See the profiles subpackage.
//   - Normalizer and Identity Resolver: [NormalizeRoster] and
//     [NormalizeProjections] coerce rows; [ResolveRoster] and
//     [ResolveProjections] derive partner ids, names and game info.
//   - Engine: field-level merges keyed on partner id. A roster upload resets
//     the pool first; a projections upload touches only the rows it names.
//   - Ledger: one entry per ingestion attempt, written before any merge.
//   - Generator: validates [OptimizationSettings], checks the pool and calls
//     the external [Optimizer].
//   - Exporter: writes lineups in the platform's entry upload layout.
//   - Service: the entry point that ties these together.
//
// # Upload Flow
//
//  1. The caller passes one file to [Service.Ingest] with an optional type
//     selector and sport tag.
//  2. A slot is taken from the [UploadLimiter] and the ledger entry recorded.
//  3. The file is read ([ReadRecords]), its header located and rows
//     normalized. Bad cells default to zero and are logged, never rejected.
//  4. The engine merges the rows and the entry is marked processed.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: store errors (duplicates, constraints, connections)
//   - VAL001-VAL006: settings, request and lineup import validation
//   - FILE001-FILE006: file errors (size, encoding, format)
//   - UPL001-UPL005: upload errors (busy, cancelled, not found)
//   - MRG001-MRG002: reconciliation failures
//   - POOL001, OPT001-OPT003: generation failures
//   - NF001-NF003: missing players, settings and lineups
package core

// Package query provides SQL parsing and execution over in-memory frames.
//
// The dialect covers what ad-hoc analysis of tabular files needs:
//   - SELECT with aliases, DISTINCT, * and * EXCLUDE (...)
//   - COLUMNS(*), COLUMNS(* EXCLUDE (...)) and COLUMNS('regex') expansion
//   - FROM a catalog name, a quoted file path or glob, or a subquery
//   - FROM-first queries ("FROM sales LIMIT 5")
//   - WHERE, GROUP BY (including GROUP BY ALL), HAVING, ORDER BY, LIMIT, OFFSET
//   - Aggregates COUNT, SUM, AVG, MIN and MAX, with DISTINCT
//   - CAST, TRY_CAST and x::TYPE conversions
//   - IS [NOT] NULL, NOTNULL, IN, LIKE, BETWEEN and CASE
//   - String, math and conditional functions, list indexing with x[n]
//   - CREATE [OR REPLACE] TABLE|VIEW, DROP, DESCRIBE and SHOW TABLES
//
// # Basic Usage
//
// Parse a statement and run it against a Source:
//
//	stmt, err := query.Parse("SELECT Product, SUM(Quantity) FROM sales GROUP BY ALL")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	df, err := query.NewExecutor(src).Query(ctx, stmt.(*query.SelectStmt))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Queries are bound before any row is evaluated, so a reference to a missing
// column fails with ErrColumnNotFound even when the source is empty.
//
// # NULL semantics
//
// Comparisons, arithmetic and most functions return NULL when an operand is
// NULL. AND, OR and NOT follow three-valued logic, and WHERE and HAVING keep
// only rows whose condition is true. Aggregates skip NULL inputs.
//
// # Security Limits
//
// The parser rejects input beyond fixed limits to bound resource use:
//   - Maximum query length: 1MB
//   - Maximum token count: 10,000
//   - Maximum expression nesting depth: 100
//   - Maximum identifier length: 256 characters
//   - Maximum file path length: 4,096 characters
package query

// Package ir provides the literal value types shared by every layer of
// varq: record rows, filter operands, and query results.
//
// This package contains type definitions and conversions only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// value layer foundational with no circular dependencies.
//
// Key design constraints:
//   - Int and Float are distinct types so a JSON 2 and a JSON 2.0 render
//     differently in compiled SQL
//   - Null is an explicit type; nil never appears inside a Value
//   - List elements keep their own types (mixed lists are legal operands)
package ir

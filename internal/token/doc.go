// Package token models the parsed Jaiva construct tree emitted by the external `jaiva -j` parser.
// Invariants:
//   - Every node carries a Header (type tag, name, declaration line, tooltip, export flag).
//   - Line -1 marks a library/global construct that has no user source location.
//   - Unknown type tags decode to *Unknown and never fail decoding of the surrounding tree.
//   - Nested blocks only contain their own children, so walking a tree always terminates.
package token

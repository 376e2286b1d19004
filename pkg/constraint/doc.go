// Package constraint parses and evaluates comparator-list version
// requirements such as "^1.2.3", ">= 1.0, < 2.0", "~> 3.1" or
// "1.x || >=2.3.0 <3".
//
// # Dialects
//
// The grammar is shared by several ecosystems. A [Dialect] selects the
// version scheme and the ecosystem-specific meaning of the operators:
//
//   - what a bare version means (exact in npm and RubyGems, caret in Cargo)
//   - whether "~" allows minor-level or last-segment changes
//   - whether "||" alternatives and "a - b" hyphen ranges are accepted
//   - whether a partial version ("1.2") means a range ("1.2.x")
//   - whether pre-releases need an explicit pre-release comparator with the
//     same release tuple (npm and Cargo)
//
// # Structure
//
// Parsing produces a [Constraint]: alternatives of [Comparator] values
// together with the separators that joined them. [Constraint.String]
// re-renders from that structure, so a constraint that was not modified
// renders exactly as it was written. Ecosystem requirement updaters modify
// comparators with [Comparator.UpdatedTo], [Comparator.RaisedTo] and
// [Comparator.WithRelease] and render the result.
//
// # Intervals
//
// Maven and NuGet use mathematical interval notation instead. Those are
// handled by [ParseIntervals].
package constraint

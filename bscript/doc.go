// Package bscript implements a small embeddable scripting language evaluated
// by walking its parse tree directly. The language supports:
//   - Numbers (float64), strings, booleans, arrays and first-class functions.
//   - Arithmetic (+, -, *, /, ^), comparisons, and/or/not.
//   - Variables with block scoping, array indexing and named properties.
//   - References created with `r = &x;` that alias another binding weakly and
//     expire as soon as the binding that owns the target goes away.
//   - if/elif/else, while, for (x in array) and def name(params) { ... }.
//
// Hosts build a SymbolTable (usually through Engine.NewTable), optionally
// register native functions, and run a compiled Script against it. A run can
// be cancelled from another goroutine with SymbolTable.Kill or by cancelling
// the context given to Script.Run. Scripts started in the background by the
// run() builtin die with the table that started them; SymbolTable.Wait blocks
// until they finish.
package bscript

// Package bytecode compiles Slime syntax trees into a compact binary form
// and executes them on a stack-based virtual machine.
//
// A compiled Program holds a flat code stream and four deduplicating
// constant pools (string literals, numbers, variable names, function
// names). Instructions are one opcode byte followed by fixed-width
// big-endian operands: pool indexes are 16 bits, jump targets are 32-bit
// absolute offsets, call instructions carry an extra argument-count byte.
//
// Programs serialize to the versioned SLBT image format (see codec.go) and
// disassemble to a readable listing (see disasm.go). The Machine executes
// images with garbage collection checkpoints driven by an explicit
// runtime.Collector.
package bytecode

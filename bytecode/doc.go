// Package bytecode decodes CIL method bodies into immutable instructions.
//
// A method body arrives as raw IL bytes plus the header fields and the
// flat exception region table supplied by the metadata reader. The
// [Decoder] turns the bytes into a lazy, restartable sequence of
// [Instruction] values, resolving metadata tokens through an injected
// [metadata.Resolver]. Tokens that cannot be resolved are reported to a
// diagnostics sink and replaced by a placeholder; only truncated operands
// and unknown opcodes stop decoding.
//
// # Key Types
//
//   - [Body]: An immutable method body (code, max stack, locals, regions)
//   - [Instruction]: One decoded instruction (value type)
//   - [Operand]: The tagged operand of an instruction (value type)
//   - [ExceptionRegion]: One try/handler/filter range triple (value type)
//   - [SourceFragment]: A source line mapped to a body offset (value type)
//
// # Immutability Guarantees
//
// Instructions and bodies are immutable after construction. Constructors
// copy input slices and collections are exposed by index:
//
//	body.RegionAt(i)
//	operand.SwitchAt(j)
//
// Branch operands hold the raw relative offset as encoded. Turning them
// into absolute targets is the job of the graph package.
//
// # Usage
//
//	dec := bytecode.NewDecoder(body.Code(), resolver,
//	    bytecode.WithDiagnostics(sink))
//	it := dec.Iter()
//	for {
//	    ins, ok := it.Next()
//	    if !ok {
//	        break
//	    }
//	    fmt.Println(ins)
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
package bytecode

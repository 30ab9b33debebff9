// Package errors provides structured, coded errors for Figura.
//
// Every error Figura raises to a caller carries a code (e.g. "F001") that
// maps to a category, a short message and a longer explanation. The CLI
// prints them with Format; library callers match them with errors.Is
// against the sentinel errors of the package that raised them.
//
// # Error Categories
//
//   - structural: markup that does not have the shape a view requires
//   - contract: values that do not satisfy a view capability
//   - config: project file problems
//   - publish: output targets that could not be written
//   - snapshot: view tree serialization failures
//
// # Usage
//
//	err := errors.New("F001").
//	    WithDetail("template produced 2 top-level nodes").
//	    WithSuggestion("Wrap the template in a single parent element")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR F001: View must contain exactly one parent element
//	//
//	//   template produced 2 top-level nodes
//	//
//	//   Hint: Wrap the template in a single parent element
package errors

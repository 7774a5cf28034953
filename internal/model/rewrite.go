package model

// RewriteOutcome is the result of the deterministic pass over one file.
// Changed is false whenever Content equals the input.
type RewriteOutcome struct {
	Content string
	Changed bool
}

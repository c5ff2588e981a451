package domain

// Actor is the authenticated caller identity handed to every workflow
// operation. Role is an explicit value resolved at the edge; services
// never infer privileges from a caller id.
type Actor struct {
	ID   string
	Role string
}

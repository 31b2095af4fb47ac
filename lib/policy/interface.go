package policy

// IRefreshPolicy decides whether a read should fetch a new snapshot before it is served.
// Each implementation owns its own state; none of them performs I/O.
// All implementations in this package are safe for concurrent use.
type IRefreshPolicy interface {
	// Decide returns true if the local view should be refreshed now.
	// Calling Decide may advance the internal state of the policy (counter, time baseline).
	Decide() bool

	// Name returns a short description of the policy in the format accepted by Parse
	Name() string
}

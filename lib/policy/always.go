package policy

type alwaysPolicy struct{}

// NewAlwaysPolicy creates a policy that refreshes on every read
func NewAlwaysPolicy() IRefreshPolicy {
	return alwaysPolicy{}
}

func (alwaysPolicy) Decide() bool {
	return true
}

func (alwaysPolicy) Name() string {
	return "always"
}

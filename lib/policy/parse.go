package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// Parse creates a policy from its textual form:
//
//	always          refresh on every read
//	lock[:BOOL]     refresh while the flag is set (default true)
//	count:N         refresh on every N-th read
//	time:DURATION   refresh if DURATION passed since the last refresh (e.g. time:500ms)
func Parse(text string) (IRefreshPolicy, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(strings.ToLower(text)), ":")

	switch kind {
	case "always", "":
		if hasArg {
			return nil, invalid(text, "always takes no argument")
		}
		return NewAlwaysPolicy(), nil
	case "lock":
		status := true
		if hasArg {
			b, err := strconv.ParseBool(arg)
			if err != nil {
				return nil, invalid(text, "lock expects a boolean")
			}
			status = b
		}
		return NewLockPolicy(status), nil
	case "count":
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil {
			return nil, invalid(text, "count expects an integer")
		}
		return NewCountPolicy(n)
	case "time":
		d, err := time.ParseDuration(arg)
		if !hasArg || err != nil {
			return nil, invalid(text, "time expects a duration")
		}
		return NewTimePolicy(d)
	default:
		return nil, invalid(text, "must be one of always, lock, count, time")
	}
}

func invalid(text, reason string) error {
	return common.NewError(common.ErrCInvalidConfiguration, fmt.Sprintf("invalid refresh policy %q: %s", text, reason), nil)
}

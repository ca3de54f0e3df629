package toolbox

// Op identifies one of the remote support operations. Keeping the set closed
// gives compile-time checked call sites instead of free-form tool strings.
type Op int

const (
	OpRecentOrders Op = iota
	OpCustomerProfile
	OpCacheGet
	OpCacheSet
)

var opToolNames = map[Op]string{
	OpRecentOrders:    "recent-orders",
	OpCustomerProfile: "customer-profile",
	OpCacheGet:        "redis-get-cache",
	OpCacheSet:        "redis-set-cache",
}

// ToolName returns the canonical remote tool name for the operation.
func (op Op) ToolName() string {
	return opToolNames[op]
}

func (op Op) String() string {
	switch op {
	case OpRecentOrders:
		return "recent_orders"
	case OpCustomerProfile:
		return "customer_profile"
	case OpCacheGet:
		return "cache_get"
	case OpCacheSet:
		return "cache_set"
	default:
		return "unknown"
	}
}

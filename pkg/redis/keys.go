package redis

import "fmt"

// RateLimitUserKey scopes the checkout rate limit to one customer.
func RateLimitUserKey(customerID uint) string {
	return fmt.Sprintf("sign_ops:rate_limit:checkout:user:%d", customerID)
}

// RateLimitIPKey is the fallback scope when no customer id is available.
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("sign_ops:rate_limit:checkout:ip:%s", ip)
}

// TransitionLockKey serializes status transitions for one order.
func TransitionLockKey(orderID uint) string {
	return fmt.Sprintf("sign_ops:order:transition_lock:%d", orderID)
}

// DispatchMarkKey marks that a (order, status) notification was already
// dispatched to the outbox.
func DispatchMarkKey(orderID uint, status string) string {
	return fmt.Sprintf("sign_ops:notify:dispatched:%d:%s", orderID, status)
}

package httpx

import (
	"context"
	"errors"
	"net"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// Classify maps an error returned by Do onto the adapter error kinds.
// Blocked hosts, an open circuit and refused connections mean the upstream
// is unavailable; everything else is a failed call.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrHostNotAllowed) {
		return domain.Unavailable(op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.CallFailed(op, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return domain.Unavailable(op, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return domain.Unavailable(op, err)
	}
	return domain.CallFailed(op, err)
}

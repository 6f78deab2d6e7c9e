package app

import (
	"context"
	"fmt"
)

// Pinger is the minimal interface for a client capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// PingerFunc adapts a bare function to the Pinger interface, for clients
// whose Ping signature carries driver-specific arguments or return types.
type PingerFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// BuildReadinessChecks returns readiness checks for mongo, redis, and kafka.
// A nil dependency yields a check that reports it unconfigured.
func BuildReadinessChecks(db, rdb, kafka Pinger) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	check := func(name string, p Pinger) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			if p == nil {
				return fmt.Errorf("%s not configured", name)
			}
			return p.Ping(ctx)
		}
	}
	return check("mongo", db), check("redis", rdb), check("kafka", kafka)
}

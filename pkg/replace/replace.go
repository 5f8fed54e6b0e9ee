// Package replace implements the get-modify-put loop with optimistic
// concurrency retry described by spec.md §4.F, layered directly on
// pkg/request's Request/Response rather than its Into/DoOrDie
// convenience wrappers, so it can distinguish the conflict/not-found/
// other-error branches the loop needs.
package replace

import (
	"context"
	"net/http"

	"github.com/kubecli/kubecli/pkg/request"
)

// ModifyResult tells the loop whether to PUT the object modify returned
// or to stop and hand the caller the object unchanged.
type ModifyResult int

const (
	// Apply means modify changed obj and it should be PUT.
	Apply ModifyResult = iota
	// NoChanges means obj is already as desired; stop without a PUT.
	NoChanges
)

// ModifyFunc computes the next version of obj, or reports that no
// change is needed. It may be called more than once per Replace call
// if a PUT races a concurrent writer and loses on 409.
type ModifyFunc[T any] func(ctx context.Context, obj *T) (*T, ModifyResult, error)

// Replace runs the atomic replace loop (spec.md §4.F):
//
//  1. If initial is nil, GET via getReq; a 404 returns (nil, nil) unless
//     throwIfMissing.
//  2. Call modify; NoChanges returns the current object without a PUT.
//  3. PUT the modified object via putReq.
//  4. On 409 Conflict, drop the cached object and loop back to step 1.
//  5. On 404 (not throwing), return (nil, nil).
//  6. On any other non-success status, raise.
//  7. Otherwise return the object decoded from the PUT response.
//
// getReq is invoked fresh on every GET so each retry observes the
// latest server state; putReq receives the candidate object and builds
// the PUT request for it. Cancellation is checked at each iteration
// boundary.
func Replace[T any](ctx context.Context, getReq func() *request.Request, putReq func(obj *T) *request.Request, initial *T, modify ModifyFunc[T], throwIfMissing bool) (*T, error) {
	obj := initial
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if obj == nil {
			fetched, err := fetch[T](ctx, getReq(), throwIfMissing)
			if err != nil {
				return nil, err
			}
			if fetched == nil {
				return nil, nil
			}
			obj = fetched
		}

		next, result, err := modify(ctx, obj)
		if err != nil {
			return nil, err
		}
		if result == NoChanges {
			return obj, nil
		}

		resp, err := putReq(next).Do(ctx)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode() == http.StatusConflict:
			_ = resp.Close()
			obj = nil
			continue
		case resp.IsNotFound():
			status, _ := resp.Status()
			_ = resp.Close()
			if !throwIfMissing {
				return nil, nil
			}
			return nil, request.NewStatusError(resp.StatusCode(), status)
		case resp.IsError():
			status, _ := resp.Status()
			_ = resp.Close()
			return nil, request.NewStatusError(resp.StatusCode(), status)
		default:
			var result T
			if err := resp.Into(&result); err != nil {
				_ = resp.Close()
				return nil, err
			}
			_ = resp.Close()
			return &result, nil
		}
	}
}

func fetch[T any](ctx context.Context, req *request.Request, throwIfMissing bool) (*T, error) {
	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if resp.IsNotFound() {
		if throwIfMissing {
			status, _ := resp.Status()
			return nil, request.NewStatusError(resp.StatusCode(), status)
		}
		return nil, nil
	}
	if resp.IsError() {
		status, _ := resp.Status()
		return nil, request.NewStatusError(resp.StatusCode(), status)
	}
	var obj T
	if err := resp.Into(&obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

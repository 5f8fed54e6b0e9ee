package exec

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// UpgradeError reports a failed SPDY upgrade: a non-101 response, or an
// unsupported (or absent) negotiated subprotocol (spec.md §4.I).
type UpgradeError struct {
	StatusCode int
	Status     *metav1.Status
	Msg        string
}

func (e *UpgradeError) Error() string {
	if e.Msg != "" {
		return "kubecli: exec upgrade failed: " + e.Msg
	}
	if e.Status != nil && e.Status.Message != "" {
		return fmt.Sprintf("kubecli: exec upgrade failed: HTTP %d: %s", e.StatusCode, e.Status.Message)
	}
	return fmt.Sprintf("kubecli: exec upgrade failed: HTTP %d", e.StatusCode)
}

// Failure reports that the executed command itself failed: a non-zero
// exit or a server-reported Failure status, surfaced only when the
// caller asked for ThrowOnFailure.
type Failure struct {
	Result *Result
}

func (e *Failure) Error() string {
	return fmt.Sprintf("kubecli: command failed: %s (code %d): %s", e.Result.Status, e.Result.Code, e.Result.Message)
}

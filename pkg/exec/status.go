package exec

import (
	"encoding/json"
	"net/http"
	"strconv"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubecli/kubecli/pkg/codec"
)

// decodeStatus best-effort decodes an upgrade-failure response body as a
// metav1.Status, for inclusion in an UpgradeError.
func decodeStatus(resp *http.Response) (*metav1.Status, error) {
	var status metav1.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// exitCodeCauseType is the metav1.StatusCause.Type the server reports a
// non-zero exit code under, on the v4 protocol.
const exitCodeCauseType = "ExitCode"

// parseExitStatus interprets the bytes collected from the error stream
// (spec.md §4.I point 4). An empty body is always success: the server
// omits the error frame entirely for a zero exit on every protocol
// version this client speaks. A non-empty body is decoded as a
// metav1.Status on v3/v4 (the only versions that JSON-encode it); v2
// bodies are the raw plain-text error message.
func parseExitStatus(protocol string, body []byte) (*Result, error) {
	if len(body) == 0 {
		return &Result{Status: StatusSuccess, Code: 0}, nil
	}

	if protocol == protocolV2 {
		return &Result{Status: StatusFailure, Code: -1, Message: string(body)}, nil
	}

	var status metav1.Status
	if err := codec.JSON.Decode(body, &status); err != nil {
		// Not every server honors the documented Status encoding; fall
		// back to treating the raw body as the failure message rather
		// than raising a decode error over a successfully-run command.
		return &Result{Status: StatusFailure, Code: -1, Message: string(body)}, nil
	}

	result := &Result{Status: Status(status.Status), Message: status.Message}
	if result.Status == "" {
		result.Status = StatusFailure
	}
	if result.Status == StatusSuccess {
		return result, nil
	}

	code := -1
	if status.Details != nil {
		for _, cause := range status.Details.Causes {
			if string(cause.Type) == exitCodeCauseType {
				if n, err := strconv.Atoi(cause.Message); err == nil {
					code = n
				}
			}
		}
	}
	result.Code = code
	return result, nil
}

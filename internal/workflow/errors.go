package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest rejects empty or malformed input before classification.
// One of the two error classes allowed to escape Run.
var ErrInvalidRequest = errors.New("invalid request")

// ClassificationFault indicates the classifier produced a route with no
// registered handler. An engine bug, never a user error.
type ClassificationFault struct {
	Route string
}

func (e *ClassificationFault) Error() string {
	return fmt.Sprintf("no agent registered for route %q", e.Route)
}

// Degraded user-facing messages for absorbed failures. Detailed errors go
// to the trace and logs only.
const (
	agentFailureMessage = "申し訳ございません。処理中にエラーが発生しました。もう一度お試しください。"
	toolFailureMessage  = "ツールの実行に失敗しました。しばらく時間をおいてお試しください。"
)

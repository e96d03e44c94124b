package workflow

import (
	"fmt"
	"strings"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/tools"
)

// topicVocabularies are the keyword sets used for topical routing. Matching
// is case-insensitive substring containment, counted per keyword.
var topicVocabularies = map[string][]string{
	RouteManufacturing: {"改善", "品質", "製造", "効率", "生産", "現場", "工程", "kaizen", "manufacturing"},
	RoutePython:        {"python", "プログラム", "コード", "スクリプト", "pandas", "ライブラリ", "関数"},
}

// Classifier decides the route for a request. Deterministic: the same input
// always yields the same decision.
type Classifier struct{}

// NewClassifier creates a keyword-heuristic classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns exactly one route for the request. An explicit tool
// prefix wins unconditionally over any topical match. Otherwise the topic
// with the most keyword hits wins; an exact tie, or no hit at all, falls
// back to general.
func (c *Classifier) Classify(req Request) RouteDecision {
	if spec, ok := tools.Detect(req.UserQuery); ok {
		return RouteDecision{
			Route:  RouteTool,
			Reason: "tool-prefix:" + spec.Name,
		}
	}

	query := strings.ToLower(req.UserQuery)

	bestRoute := ""
	bestCount := 0
	tied := false
	for route, keywords := range topicVocabularies {
		count := 0
		for _, kw := range keywords {
			if strings.Contains(query, kw) {
				count++
			}
		}
		switch {
		case count > bestCount:
			bestRoute, bestCount, tied = route, count, false
		case count == bestCount && count > 0:
			tied = true
		}
	}

	if bestCount == 0 || tied {
		return RouteDecision{Route: RouteGeneral, Reason: "fallback:general"}
	}

	return RouteDecision{
		Route:  bestRoute,
		Reason: fmt.Sprintf("keyword-match:%s:%d", bestRoute, bestCount),
	}
}

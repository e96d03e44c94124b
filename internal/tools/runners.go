package tools

import (
	"context"
	"fmt"
)

// Runner executes one tool invocation. Implementations must honor ctx and
// return an error rather than panic.
type Runner func(ctx context.Context, input string) (string, error)

// runSQL is a placeholder: it does not touch any database. A safe read-only
// query executor (parameterized, audited, time-bounded) is the planned
// replacement.
func runSQL(_ context.Context, input string) (string, error) {
	return fmt.Sprintf("[SQL Tool] まだ有効化されていません。\n将来的には安全な読み取り専用クエリ実行（パラメータ化・監査ログ・タイムアウト）を提供予定です。\n受領クエリ候補: %s", input), nil
}

// runWeb is a placeholder: no network calls are made.
func runWeb(_ context.Context, input string) (string, error) {
	return fmt.Sprintf("[Web Search Tool] まだ有効化されていません。\n将来的には検索プロバイダ統合＋要約（ソース出典付き）・レート制御・キャッシュを提供予定です。\n受領検索語: %s", input), nil
}

// defaultRunners maps canonical tool names to their runners.
func defaultRunners() map[string]Runner {
	return map[string]Runner{
		"sql": runSQL,
		"web": runWeb,
	}
}

package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/llm"
)

const pythonFallback = "申し訳ございません。現在LLMプロバイダが設定されていないため、Python技術指導を提供できません。API設定を確認してください。"

// PythonMentor answers Python programming questions with a manufacturing
// slant (data analysis, shop-floor automation).
type PythonMentor struct {
	provider llm.Provider
}

// NewPythonMentor creates the Python responder.
func NewPythonMentor(provider llm.Provider) *PythonMentor {
	return &PythonMentor{provider: provider}
}

func (a *PythonMentor) Name() string { return "python" }

func (a *PythonMentor) Invoke(ctx context.Context, in Input) (Output, error) {
	log.Debug().Str("agent", a.Name()).Msg("agent started")

	if !a.provider.Configured() {
		log.Info().Str("agent", a.Name()).Bool("fallback", true).Msg("agent completed")
		return Output{Content: pythonFallback}, nil
	}

	prompt := fmt.Sprintf(`あなたは製造業で使用するPythonの専門講師です。
以下の質問に対して、実用的で理解しやすい回答を提供してください。

質問: %s
%s

回答の際は以下の点を考慮してください：
- 製造業の現場で活用できるPythonの使い方
- 具体的なコード例を含める（可能な場合）
- 初心者にも理解しやすい説明
- データ分析や自動化への応用も含める
- セキュリティや効率性も考慮する
- 日本語で丁寧に回答する

回答:`, in.UserQuery, contextBlock(in))

	content, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		log.Error().Str("agent", a.Name()).Err(err).Msg("agent failed")
		return Output{}, fmt.Errorf("python mentor: %w", err)
	}

	log.Info().Str("agent", a.Name()).Int("response_length", len(content)).Msg("agent completed")
	return Output{Content: content}, nil
}

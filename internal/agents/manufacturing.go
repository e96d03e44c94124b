package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/llm"
)

const manufacturingFallback = "申し訳ございません。現在LLMプロバイダが設定されていないため、製造業に関する詳細なアドバイスを提供できません。API設定を確認してください。"

// ManufacturingAdvisor answers manufacturing improvement questions
// (kaizen, quality control, production efficiency).
type ManufacturingAdvisor struct {
	provider llm.Provider
}

// NewManufacturingAdvisor creates the manufacturing responder.
func NewManufacturingAdvisor(provider llm.Provider) *ManufacturingAdvisor {
	return &ManufacturingAdvisor{provider: provider}
}

func (a *ManufacturingAdvisor) Name() string { return "manufacturing" }

func (a *ManufacturingAdvisor) Invoke(ctx context.Context, in Input) (Output, error) {
	log.Debug().Str("agent", a.Name()).Msg("agent started")

	if !a.provider.Configured() {
		log.Info().Str("agent", a.Name()).Bool("fallback", true).Msg("agent completed")
		return Output{Content: manufacturingFallback}, nil
	}

	prompt := fmt.Sprintf(`あなたは製造業の改善活動を専門とするAIコンサルタントです。
以下の質問に対して、実践的で具体的なアドバイスを提供してください。

質問: %s
%s

回答の際は以下の点を考慮してください：
- 製造業の現場で実際に適用できる実践的な提案
- 改善活動のステップを具体的に説明
- 可能であれば数値目標や測定方法も含める
- リスクや注意点も言及する
- 日本語で丁寧に回答する

回答:`, in.UserQuery, contextBlock(in))

	content, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		log.Error().Str("agent", a.Name()).Err(err).Msg("agent failed")
		return Output{}, fmt.Errorf("manufacturing advisor: %w", err)
	}

	log.Info().Str("agent", a.Name()).Int("response_length", len(content)).Msg("agent completed")
	return Output{Content: content}, nil
}

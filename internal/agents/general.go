package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/llm"
)

// GeneralResponder handles everything the topical agents do not claim.
type GeneralResponder struct {
	provider llm.Provider
}

// NewGeneralResponder creates the catch-all responder.
func NewGeneralResponder(provider llm.Provider) *GeneralResponder {
	return &GeneralResponder{provider: provider}
}

func (a *GeneralResponder) Name() string { return "general" }

func (a *GeneralResponder) Invoke(ctx context.Context, in Input) (Output, error) {
	log.Debug().Str("agent", a.Name()).Msg("agent started")

	if !a.provider.Configured() {
		log.Info().Str("agent", a.Name()).Bool("fallback", true).Msg("agent completed")
		content := fmt.Sprintf("ご質問ありがとうございます。「%s」についてですが、現在LLMプロバイダが設定されていないため、詳細な回答を提供できません。製造業の改善活動やPython技術についてのご質問でしたら、API設定後により具体的なアドバイスを提供できます。", in.UserQuery)
		return Output{Content: content}, nil
	}

	prompt := fmt.Sprintf(`以下の質問に対して、親切で丁寧な回答を提供してください：

質問: %s
%s

製造業とPython技術指導を専門とするAIアシスタントとして、
可能であれば専門分野との関連性も含めて回答してください。
日本語で回答してください。

回答:`, in.UserQuery, contextBlock(in))

	content, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		log.Error().Str("agent", a.Name()).Err(err).Msg("agent failed")
		return Output{}, fmt.Errorf("general responder: %w", err)
	}

	log.Info().Str("agent", a.Name()).Int("response_length", len(content)).Msg("agent completed")
	return Output{Content: content}, nil
}

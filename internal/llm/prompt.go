package llm

import "mathtutor-backend/internal/models"

// systemPrompt is the fixed tutor framing prepended to every request:
// persona, step-by-step requirement, and LaTeX delimiters for math markup.
const systemPrompt = "당신은 수학 문제를 해결하는 전문 AI 조수입니다. " +
	"사용자가 수학 문제를 제공하면, 단계별로 자세히 풀이 과정을 설명하고 최종 답을 제시하세요. " +
	"수식은 LaTeX 형식으로 작성하여 $...$ 또는 $$...$$ 로 감싸주세요."

// DefaultContextWindow is the bound on how many persisted messages are
// included in one request. Recency is assumed more relevant than full
// history, and the bound keeps request cost within the model's limits.
const DefaultContextWindow = 10

// BuildContext derives the outbound message sequence for one exchange from
// the conversation's log (ascending creation order, already including the
// just-persisted user message): the system framing first, then the most
// recent window messages in chronological order. Pure function of its
// input; output length is at most window+1.
func BuildContext(history []ChatMessage, window int) []ChatMessage {
	if window <= 0 {
		window = DefaultContextWindow
	}

	out := make([]ChatMessage, 0, window+1)
	out = append(out, ChatMessage{Role: models.RoleSystem, Content: systemPrompt})

	if len(history) > window {
		history = history[len(history)-window:]
	}
	out = append(out, history...)

	return out
}

package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"interview-coach/internal/llm"
)

const (
	MinScore = 0
	MaxScore = 10
)

type Evaluation struct {
	Score          int    `json:"score"`
	Feedback       string `json:"feedback"`
	ImprovedAnswer string `json:"improved_answer"`

	fallback bool
}

// NewEvaluation builds a validated result. Scores are never clamped.
func NewEvaluation(score int, feedback, improvedAnswer string) (Evaluation, error) {
	ev := Evaluation{Score: score, Feedback: feedback, ImprovedAnswer: improvedAnswer}
	if err := ev.Validate(); err != nil {
		return Evaluation{}, err
	}
	return ev, nil
}

func (e Evaluation) Validate() error {
	if e.Score < MinScore || e.Score > MaxScore {
		return &ShapeError{Reason: fmt.Sprintf("score %d is outside [%d, %d]", e.Score, MinScore, MaxScore)}
	}
	return nil
}

// Fallback reports whether the result was synthesized because the model
// output was not JSON.
func (e Evaluation) Fallback() bool { return e.fallback }

// ShapeError means the model output was valid JSON but not a valid
// evaluation: a field is missing, null, has the wrong type or the score
// is out of range.
type ShapeError struct {
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid evaluation: %s: %v", e.Reason, e.Err)
	}
	return "invalid evaluation: " + e.Reason
}

func (e *ShapeError) Unwrap() error { return e.Err }

// Evaluate scores a candidate answer in a one-shot call that never touches
// a session. Non-JSON output yields the fallback result; JSON of the wrong
// shape yields a *ShapeError.
func (c *Coach) Evaluate(ctx context.Context, question, answer string) (Evaluation, error) {
	prompt := []llm.Message{
		{Role: llm.RoleSystem, Content: evaluateSystemPrompt},
		{Role: llm.RoleUser, Content: buildEvaluatePrompt(question, answer)},
	}
	resp, err := c.llm.Generate(ctx, prompt, llm.Options{
		Temperature:     evaluateTemperature,
		MaxOutputTokens: evaluateMaxTokens,
		Extra:           map[string]any{llm.ExtraJSONOnly: true},
	})
	if err != nil {
		return Evaluation{}, err
	}

	ev, err := ParseEvaluation(resp.Text)
	if err != nil {
		log.Printf("❌ evaluation has invalid shape: %v", err)
		return Evaluation{}, err
	}
	if ev.Fallback() {
		log.Printf("⚠️ evaluation output is not JSON, using fallback (%d chars)", len(resp.Text))
	}
	return ev, nil
}

func buildEvaluatePrompt(question, answer string) string {
	return fmt.Sprintf("Оцени ответ кандидата по 10-балльной шкале и дай фидбек.\n\n"+
		"Вопрос:\n%s\n\n"+
		"Ответ:\n%s\n\n"+
		"Формат ответа — JSON:\n%s", question, answer, evaluationShape)
}

// ParseEvaluation turns model output into an Evaluation. Only text that is
// not syntactically JSON falls back; everything else must pass validation.
func ParseEvaluation(text string) (Evaluation, error) {
	if !json.Valid([]byte(text)) {
		return Evaluation{
			Score:          FallbackScore,
			Feedback:       strings.TrimSpace(text),
			ImprovedAnswer: FallbackImprovedAnswer,
			fallback:       true,
		}, nil
	}

	var raw struct {
		Score          *int    `json:"score"`
		Feedback       *string `json:"feedback"`
		ImprovedAnswer *string `json:"improved_answer"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Evaluation{}, &ShapeError{Reason: "unexpected field types", Err: err}
	}

	var missing []string
	if raw.Score == nil {
		missing = append(missing, "score")
	}
	if raw.Feedback == nil {
		missing = append(missing, "feedback")
	}
	if raw.ImprovedAnswer == nil {
		missing = append(missing, "improved_answer")
	}
	if len(missing) > 0 {
		return Evaluation{}, &ShapeError{Reason: "missing fields " + strings.Join(missing, ", ")}
	}
	return NewEvaluation(*raw.Score, *raw.Feedback, *raw.ImprovedAnswer)
}

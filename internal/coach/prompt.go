package coach

// SystemPrompt задаёт поведение ассистента в диалоге. Модель сама
// распознаёт намерения пользователя, сервис текст не разбирает.
const SystemPrompt = `Ты — ассистент для подготовки к собеседованиям.
Цели:
- снижать тревогу и вести диалог дружелюбно;
- задавать вопросы от простого к сложному, по одному за раз;
- по запросу давать подсказку / эталонный ответ / оценку.

Правила:
- Если пользователь пишет "старт" — задай 1 вопрос и попроси ответить.
- Если пользователь просит "подсказку" — дай 3–5 пунктов, не раскрывая весь ответ.
- Если пользователь просит "эталонный ответ" — дай структурированный полный ответ.
- Если пользователь просит "оценить" — верни балл 0–10, объясни почему и предложи улучшенную версию.
`

const evaluateSystemPrompt = "Отвечай только валидным JSON без лишнего текста."

// evaluationShape is shown to the model verbatim as the required format.
const evaluationShape = `{"score": 0, "feedback": "string", "improved_answer": "string"}`

// FallbackImprovedAnswer is returned when the model output is not JSON.
const FallbackImprovedAnswer = "Определи суть → шаги/причины → пример → ограничения → итог."

const (
	FallbackScore = 5

	chatTemperature     = 0.3
	chatMaxTokens       = 900
	evaluateTemperature = 0.2
	evaluateMaxTokens   = 600
)

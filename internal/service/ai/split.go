package ai

import "strings"

const (
	contextMarker = "Context:"
	answerPrefix  = "Answer:"
)

// genericContext substitutes for the context part when the model did not
// emit a "Context:" marker.
const genericContext = "This advice is important for improving animal health and productivity in practical farming conditions."

// SplitReply divides raw model output into answer and context parts on the
// first "Context:" occurrence. A leading "Answer:" label is stripped from
// the answer part. Output without the marker becomes the answer in full,
// paired with a generic context sentence.
func SplitReply(raw string) (answer, contextText string) {
	text := strings.TrimSpace(raw)

	before, after, found := strings.Cut(text, contextMarker)
	if !found {
		return text, genericContext
	}

	answer = strings.TrimSpace(before)
	answer = strings.TrimSpace(strings.TrimPrefix(answer, answerPrefix))
	return answer, strings.TrimSpace(after)
}

package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/vectorindex"
)

// scriptedLLM answers hypothesis and synthesis prompts separately and can
// fail either step.
type scriptedLLM struct {
	hypothesis     string
	hypothesisErr  error
	synthesisErr   error
	synthesize     func(prompt string) string
	prompts        []string
	synthesisCalls int
}

func (m *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if strings.HasPrefix(prompt, "Generate a comprehensive hypothetical answer") {
		return m.hypothesis, m.hypothesisErr
	}
	m.synthesisCalls++
	if m.synthesisErr != nil {
		return "", m.synthesisErr
	}
	if m.synthesize != nil {
		return m.synthesize(prompt), nil
	}
	return "a plain answer", nil
}

// capturingEmbedder records the text embedded for each query.
type capturingEmbedder struct {
	queries []string
	err     error
}

func (e *capturingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (e *capturingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.queries = append(e.queries, text)
	return []float32{1}, nil
}

// fixedCollection returns canned results and records the requested topK.
type fixedCollection struct {
	results []vectorindex.Result
	err     error
	topKs   []int
}

func (c *fixedCollection) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	return nil
}

func (c *fixedCollection) Query(ctx context.Context, embedding []float32, topK int) ([]vectorindex.Result, error) {
	c.topKs = append(c.topKs, topK)
	if c.err != nil {
		return nil, c.err
	}
	if topK > len(c.results) {
		topK = len(c.results)
	}
	return c.results[:topK], nil
}

func ranked(texts ...string) []vectorindex.Result {
	out := make([]vectorindex.Result, len(texts))
	for i, t := range texts {
		out[i] = vectorindex.Result{Text: t, Distance: float32(i) * 0.1}
	}
	return out
}

func TestAnswerEmbedsHypothesisNotQuestion(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "Paris is the capital and largest city of France."}
	emb := &capturingEmbedder{}
	col := &fixedCollection{results: ranked("chunk")}

	NewEngine(llm, emb, 3).Answer(context.Background(), "What is the capital of France?", col)

	require.Len(t, emb.queries, 1)
	assert.Equal(t, "Paris is the capital and largest city of France.", emb.queries[0])
}

func TestAnswerFallsBackToQuestionOnHypothesisFailure(t *testing.T) {
	llm := &scriptedLLM{hypothesisErr: errors.New("model offline")}
	emb := &capturingEmbedder{}
	col := &fixedCollection{results: ranked("chunk")}

	reply := NewEngine(llm, emb, 3).Answer(context.Background(), "What is the capital of France?", col)

	require.Len(t, emb.queries, 1)
	assert.Equal(t, "What is the capital of France?", emb.queries[0],
		"fallback must embed the question verbatim")
	assert.Equal(t, "a plain answer", reply, "hypothesis failure is not fatal")
}

func TestAnswerFallsBackOnBlankHypothesis(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "  \n"}
	emb := &capturingEmbedder{}
	col := &fixedCollection{results: ranked("chunk")}

	NewEngine(llm, emb, 3).Answer(context.Background(), "anything?", col)

	require.Len(t, emb.queries, 1)
	assert.Equal(t, "anything?", emb.queries[0])
}

func TestAnswerRequestsTopThree(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "h"}
	col := &fixedCollection{results: ranked("a", "b", "c", "d")}

	NewEngine(llm, &capturingEmbedder{}, 0).Answer(context.Background(), "q", col)

	require.Len(t, col.topKs, 1)
	assert.Equal(t, DefaultTopK, col.topKs[0])
}

func TestAnswerComposesContextInRankedOrder(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "h"}
	col := &fixedCollection{results: ranked("first", "second", "third")}

	NewEngine(llm, &capturingEmbedder{}, 3).Answer(context.Background(), "q", col)

	require.Equal(t, 1, llm.synthesisCalls)
	synth := llm.prompts[len(llm.prompts)-1]
	assert.Contains(t, synth, "first"+ContextSeparator+"second"+ContextSeparator+"third")
	assert.Contains(t, synth, "Question: q")
}

func TestAnswerReturnsErrorStringOnSynthesisFailure(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "h", synthesisErr: errors.New("rate limited")}
	col := &fixedCollection{results: ranked("chunk")}

	reply := NewEngine(llm, &capturingEmbedder{}, 3).Answer(context.Background(), "q", col)

	assert.Equal(t, "Error processing query: rate limited", reply)
}

func TestAnswerReturnsErrorStringOnQueryEmbedFailure(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "h"}
	emb := &capturingEmbedder{err: errors.New("embedder down")}

	reply := NewEngine(llm, emb, 3).Answer(context.Background(), "q", &fixedCollection{})

	assert.Equal(t, "Error processing query: embedder down", reply)
}

func TestAnswerReturnsErrorStringOnIndexFailure(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "h"}
	col := &fixedCollection{err: errors.New("collection gone")}

	reply := NewEngine(llm, &capturingEmbedder{}, 3).Answer(context.Background(), "q", col)

	assert.True(t, strings.HasPrefix(reply, "Error processing query: "), "got %q", reply)
}

func TestAnswerReplacesBlankSynthesis(t *testing.T) {
	llm := &scriptedLLM{hypothesis: "h", synthesize: func(string) string { return "   " }}
	col := &fixedCollection{results: ranked("chunk")}

	reply := NewEngine(llm, &capturingEmbedder{}, 3).Answer(context.Background(), "q", col)

	assert.Equal(t, "Sorry, I couldn't generate a response.", reply)
}

// contextBoundLLM imitates a model that obeys the context-only
// instruction: it answers from the context or says it does not know.
func contextBoundLLM() *scriptedLLM {
	m := &scriptedLLM{hypothesis: "The capital of France is a major European city."}
	m.synthesize = func(prompt string) string {
		if strings.Contains(prompt, "Paris") {
			return "Key Insight: Paris"
		}
		return DontKnow
	}
	return m
}

func TestAnswerFindsFactInContext(t *testing.T) {
	col := &fixedCollection{results: ranked("The capital of France is Paris", "page two text")}

	reply := NewEngine(contextBoundLLM(), &capturingEmbedder{}, 3).
		Answer(context.Background(), "What is the capital of France?", col)

	assert.Contains(t, reply, "Paris")
	assert.NotContains(t, reply, DontKnow)
}

func TestAnswerAdmitsUnknownForUnrelatedQuestion(t *testing.T) {
	col := &fixedCollection{results: ranked("a document about gardening")}

	reply := NewEngine(contextBoundLLM(), &capturingEmbedder{}, 3).
		Answer(context.Background(), "What is the airspeed of a swallow?", col)

	assert.Contains(t, reply, DontKnow)
}

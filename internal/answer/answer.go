// Package answer implements HyDE retrieval-then-generation: hypothesize
// an answer, embed the hypothesis, retrieve the nearest chunks, and
// synthesize a reply from that context only.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docchat/internal/llm"
	"docchat/internal/vectorindex"
)

const (
	// ContextSeparator joins retrieved chunks in ranked order.
	ContextSeparator = "\n\n---\n\n"

	// DontKnow is the sentinel the synthesis prompt demands when the
	// retrieved context cannot answer the question.
	DontKnow = "I don't know"

	DefaultTopK = 3
)

const hypothesisPrompt = `Generate a comprehensive hypothetical answer that might exist in the document for:
Question: %s
Include key terms and concepts the document would contain:`

const synthesisPrompt = `Answer this question based ONLY on the following context:
Question: %s
Context: %s

Instructions:
- Provide a concise and direct answer first.
- Follow the direct answer with a detailed explanation using relevant information from the context.
- Mention supporting facts or key concepts to justify the response.
- Say "I don't know" if the context does not provide enough information.
- Never hallucinate information.

Format:
- Key Insight: [Concise Answer]
- Additional Insights: [Detailed Explanation]`

// Engine is stateless across calls; all session state lives in the
// document session and the transcript.
type Engine struct {
	llm      llm.Generator
	embedder embeddings.Embedder
	topK     int
}

func NewEngine(generator llm.Generator, embedder embeddings.Embedder, topK int) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{llm: generator, embedder: embedder, topK: topK}
}

// Answer runs the four HyDE steps against the given collection. It always
// returns displayable text: failures become an error message in place of
// an answer, so one bad turn never crashes the interface.
func (e *Engine) Answer(ctx context.Context, question string, col vectorindex.Collection) string {
	hypothesis := e.hypothesize(ctx, question)

	vec, err := e.embedder.EmbedQuery(ctx, hypothesis)
	if err != nil {
		return errorReply(err)
	}
	results, err := col.Query(ctx, vec, e.topK)
	if err != nil {
		return errorReply(err)
	}

	reply, err := e.llm.Generate(ctx, fmt.Sprintf(synthesisPrompt, question, Compose(results)))
	if err != nil {
		return errorReply(err)
	}
	if strings.TrimSpace(reply) == "" {
		return "Sorry, I couldn't generate a response."
	}
	return reply
}

// hypothesize asks the model for a plausible answer to embed instead of
// the raw question. Failure degrades to the question itself.
func (e *Engine) hypothesize(ctx context.Context, question string) string {
	h, err := e.llm.Generate(ctx, fmt.Sprintf(hypothesisPrompt, question))
	if err != nil || strings.TrimSpace(h) == "" {
		log.Debug().Err(err).Msg("hypothesis generation failed, falling back to the question")
		return question
	}
	return h
}

// Compose joins retrieved chunk texts most-relevant-first.
func Compose(results []vectorindex.Result) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, ContextSeparator)
}

func errorReply(err error) string {
	log.Error().Err(err).Msg("answering failed")
	return "Error processing query: " + err.Error()
}

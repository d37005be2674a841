package prompt

import (
	"fmt"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// Answer builds the question-answering prompt.
func Answer(query, context string) string {
	if context == "" {
		return fmt.Sprintf("Question: %s\n\nAnswer:", query)
	}
	return fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nAnswer:", context, query)
}

// AnswerFallback is the answer text used when the generator is unavailable.
func AnswerFallback(query, context string) string {
	return fmt.Sprintf("Based on the query '%s', here is a comprehensive answer. %s", query, context)
}

// AnswerEmpty is the apology used when the generator returns nothing usable.
func AnswerEmpty(query string) string {
	return fmt.Sprintf("I apologize, but I couldn't generate a specific answer for '%s'. Please try rephrasing your question.", query)
}

// AnswerError is the apology used when the generator call fails.
func AnswerError(query string) string {
	return fmt.Sprintf("I apologize, but I encountered an error while generating the answer for '%s'. Please try again or rephrase your question.", query)
}

// SDQuery builds the instruction asking a model for a Stable Diffusion prompt.
func SDQuery(q domain.CategorizedQuery, creativeContext string) string {
	if creativeContext == "" {
		creativeContext = "Focus on Hyundai design language and modern automotive aesthetics"
	}

	var b strings.Builder
	b.WriteString("You are an expert at creating Stable Diffusion prompts for car design visualization.\n\n")
	b.WriteString("Task: Create a detailed, 77 CLIP token compatible prompt for generating a car image.\n\n")
	b.WriteString("Car Information:\n")
	fmt.Fprintf(&b, "- Car: %s\n", q.CarNameOr(DefaultCarName))
	fmt.Fprintf(&b, "- Design Elements: %s\n", joinOr(q.DesignElements, "standard"))
	fmt.Fprintf(&b, "- Style: %s\n", q.StyleOr(DefaultStyle))
	fmt.Fprintf(&b, "- Color: %s\n", valueOr(q.Color, "default"))
	fmt.Fprintf(&b, "- Perspective: %s\n", valueOr(q.Perspective, "3/4 view"))
	fmt.Fprintf(&b, "- Background: %s\n", valueOr(q.Background, "studio background"))
	fmt.Fprintf(&b, "- Additional Features: %s\n\n", joinOr(q.AdditionalFeatures, "none"))
	fmt.Fprintf(&b, "Creative Context: %s\n\n", creativeContext)
	b.WriteString("Requirements:\n")
	b.WriteString("- Create a detailed prompt suitable for Stable Diffusion\n")
	b.WriteString("- Include specific design elements, lighting, and composition details\n")
	b.WriteString("- Ensure the prompt is optimized for 77 CLIP tokens\n")
	b.WriteString("- Focus on automotive design and Hyundai brand characteristics\n\n")
	b.WriteString("Format your response as:\n")
	b.WriteString("PROMPT: [detailed stable diffusion prompt]\n")
	b.WriteString("EXPLANATION: [brief explanation of design choices]\n\n")
	b.WriteString("PROMPT:")
	return b.String()
}

// SDExplanation builds the instruction asking a model to describe a generated image.
func SDExplanation(sdPrompt, originalQuery string, q domain.CategorizedQuery) string {
	var b strings.Builder
	b.WriteString("You are an expert automotive design analyst. Explain the generated car image in a user-friendly way.\n\n")
	fmt.Fprintf(&b, "Original Request: %s\n", originalQuery)
	fmt.Fprintf(&b, "Generated SD Prompt: %s\n\n", sdPrompt)
	b.WriteString("Car Details:\n")
	fmt.Fprintf(&b, "- Car: %s\n", q.CarNameOr(DefaultCarName))
	fmt.Fprintf(&b, "- Design Elements: %s\n", joinOr(q.DesignElements, "standard"))
	fmt.Fprintf(&b, "- Style: %s\n\n", q.StyleOr(DefaultStyle))
	b.WriteString("Task: Create a clear, engaging explanation of what the generated image shows, focusing on:\n")
	b.WriteString("- The car's design features and style\n")
	b.WriteString("- How it matches the user's request\n")
	b.WriteString("- Key visual elements and characteristics\n")
	b.WriteString("- Design inspiration and aesthetic choices\n\n")
	b.WriteString("Write a natural, conversational explanation that helps users understand what they're seeing.\n\n")
	b.WriteString("Explanation:")
	return b.String()
}

// CreativeSearchQuery is the web query used to gather design inspiration.
func CreativeSearchQuery(q domain.CategorizedQuery) string {
	parts := []string{
		q.CarNameOr("Hyundai"),
		q.StyleOr(DefaultStyle),
		"automotive design car design trends",
	}
	parts = append(parts, q.DesignElements...)
	parts = append(parts, "design inspiration automotive trends")
	return strings.Join(parts, " ")
}

// CreativeFallback is the creative context used when the web search yields nothing.
func CreativeFallback(q domain.CategorizedQuery) string {
	return fmt.Sprintf("Creative inspiration for %s %s design", q.CarNameOr("Hyundai"), q.StyleOr(DefaultStyle))
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

func valueOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

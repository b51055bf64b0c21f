package openai

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

const systemPrompt = `You are an AI Climate Support Agent named "HeatWatch AI". ` +
	`You write polite, professional and empathetic email replies to people who subscribed to heatwave alerts.`

const noQuestion = "No specific question, just subscribing."

func userPrompt(p domain.ReplyPrompt) string {
	question := strings.TrimSpace(p.Question)
	if question == "" {
		question = noQuestion
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A user named %q has subscribed to alerts for %q.\n", p.Name, p.Location)
	fmt.Fprintf(&b, "They asked this question: %q\n\n", question)
	b.WriteString("Task: write the email response body.\n")
	b.WriteString("- If they asked a question, answer it using heatwave safety protocols.\n")
	b.WriteString("- If not, confirm the subscription and give one or two general safety tips.\n")
	fmt.Fprintf(&b, "- Language: %s.\n", languageName(p.Language))
	return b.String()
}

func languageName(lang domain.Language) string {
	if lang == domain.LanguageBN {
		return "Bengali"
	}
	return "English"
}

const reportSystemPrompt = `You are "HeatWatch AI", a climate analyst. Answer with short factual bullet points.`

func newsPrompt(location string, lang domain.Language) string {
	return fmt.Sprintf("Provide a concise bullet-point summary of the last 7 days of weather, heatwave, "+
		"and climate-related news for %q. If there were no major events, summarize general seasonal "+
		"climate trends. Focus on facts. %s", location, languageInstruction(lang))
}

func reliefPrompt(location string, lang domain.Language) string {
	return fmt.Sprintf("List 3-4 nearby cooling centers, large public parks, or hospitals in %q that "+
		"would be useful during a heatwave. Briefly mention why each is relevant. %s", location, languageInstruction(lang))
}

func languageInstruction(lang domain.Language) string {
	return fmt.Sprintf("Provide the response in %s.", languageName(lang))
}

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// Narrator writes the markdown analysis summary of a report.
type Narrator interface {
	Narrate(ctx context.Context, r *Report) (string, error)
}

// TemplateNarrator produces a fixed-format summary from the report fields.
type TemplateNarrator struct{}

// Narrate implements Narrator.
func (TemplateNarrator) Narrate(_ context.Context, r *Report) (string, error) {
	var b strings.Builder
	info := r.BasicInfo
	rec := r.Recommendation
	money := func(v float64) string { return utils.FormatMoney(v, info.Currency) }

	fmt.Fprintf(&b, "**%s** Valuation Report\n\n", info.CompanyName)

	target := utils.Deref(rec.TargetPrice)
	upside := utils.Deref(rec.UpsidePct)
	fmt.Fprintf(&b, "**Rating: %s**\n\n", RatingLabel(rec.Rating))

	switch rec.Rating {
	case models.RatingStrongBuy, models.RatingBuy:
		fmt.Fprintf(&b, "The current price of %s is below the target price of %s, implying %.1f%% upside.\n",
			money(info.CurrentPrice), money(target), upside)
	case models.RatingSell, models.RatingReduce:
		fmt.Fprintf(&b, "The current price of %s is above the target price of %s, implying %.1f%% downside risk.\n",
			money(info.CurrentPrice), money(target), math.Abs(upside))
	case models.RatingUnknown:
		b.WriteString("There was not enough data to compute a fair value.\n")
	default:
		fmt.Fprintf(&b, "The current price of %s is close to the target price of %s; the valuation looks reasonable.\n",
			money(info.CurrentPrice), money(target))
	}

	fv := r.Valuation.FairValueRange
	if fv.Low != nil && fv.High != nil {
		fmt.Fprintf(&b, "\n**Fair value range**: %s - %s\n", money(*fv.Low), money(*fv.High))
	}

	switch {
	case r.Risk.Overall.Level == models.RiskHigh:
		b.WriteString("\n**Risk warning**: the company shows significant financial risk and needs careful review.\n")
	case r.Risk.Overall.Level == models.RiskElevated:
		b.WriteString("\n**Risk notice**: several financial warnings were raised; extra scrutiny is advised.\n")
	case r.Risk.Altman.Zone == models.ZoneDistress:
		b.WriteString("\n**Bankruptcy risk**: the Altman Z-Score places the company in the distress zone.\n")
	}

	return b.String(), nil
}

// RatingLabel is the display name of a rating.
func RatingLabel(r models.Rating) string {
	switch r {
	case models.RatingStrongBuy:
		return "Strong Buy"
	case models.RatingBuy:
		return "Buy"
	case models.RatingAccumulate:
		return "Accumulate"
	case models.RatingHold:
		return "Hold"
	case models.RatingReduce:
		return "Reduce"
	case models.RatingSell:
		return "Sell"
	default:
		return "Not Rated"
	}
}

const narratorSystemPrompt = `You are an equity research analyst. Write a concise markdown summary
(at most 200 words) of the valuation report you are given. Start with a bold title line, state the
rating and target price, mention the fair value range and any risk flags. Use only the numbers in
the report; do not invent figures.`

// OpenAINarrator asks an OpenAI chat model to write the summary.
type OpenAINarrator struct {
	client *openai.Client
	model  string
}

// NewOpenAINarrator creates a narrator using apiKey and model.
func NewOpenAINarrator(apiKey, model string) *OpenAINarrator {
	return NewOpenAINarratorWithClient(openai.NewClient(apiKey), model)
}

// NewOpenAINarratorWithClient uses an existing client, for custom base URLs.
func NewOpenAINarratorWithClient(client *openai.Client, model string) *OpenAINarrator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAINarrator{client: client, model: model}
}

// Narrate implements Narrator.
func (n *OpenAINarrator) Narrate(ctx context.Context, r *Report) (string, error) {
	payload, err := json.Marshal(struct {
		BasicInfo      BasicInfo             `json:"basic_info"`
		Valuation      ValuationSummary      `json:"valuation"`
		Risk           RiskSummary           `json:"risk_assessment"`
		Recommendation models.Recommendation `json:"recommendation"`
	}{r.BasicInfo, r.Valuation, r.Risk, r.Recommendation})
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: narratorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return cleanMarkdown(resp.Choices[0].Message.Content), nil
}

// cleanMarkdown strips an outer code fence that chat models like to wrap
// markdown answers in.
func cleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```markdown")
	cleaned = strings.TrimPrefix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// defaultPromptTmpl is the prompt sent to the model for each paper. It asks
// for a short prose summary plus discrete key ideas in one JSON object.
// Per prd004-summarization R2.1.
var defaultPromptTmpl = template.Must(template.New("summary").Parse(`You are a research assistant preparing a daily digest of newly published papers.

Summarize the following paper:
- summary: two or three plain sentences covering what problem the paper tackles, how it approaches it, and what it finds. No hype, no filler.
- key_ideas: three to five short bullet points, one concrete idea each.

Respond with a JSON object only. Do not include any text outside the JSON object.

Example response:
{"summary": "The paper studies ...", "key_ideas": ["...", "..."]}

Title: {{.Title}}

Abstract:
{{.Abstract}}
`))

// maxKeyIdeas caps the bullet list regardless of how many the model returns.
const maxKeyIdeas = 5

// summaryResponse is the JSON shape the model is asked to produce.
type summaryResponse struct {
	Summary  string   `json:"summary"`
	KeyIdeas []string `json:"key_ideas"`
}

// renderPrompt executes tmpl with the paper's title and abstract.
func renderPrompt(tmpl *template.Template, paper types.Paper) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Title    string
		Abstract string
	}{Title: paper.Title, Abstract: paper.Abstract}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseSummary decodes the model's response. Models sometimes wrap the JSON
// in a Markdown code fence despite instructions, so fences are stripped
// before decoding.
func parseSummary(raw string) (summaryResponse, error) {
	var resp summaryResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return summaryResponse{}, fmt.Errorf("parsing model response JSON: %w", err)
	}
	resp.Summary = strings.TrimSpace(resp.Summary)
	if resp.Summary == "" {
		return summaryResponse{}, fmt.Errorf("model response has empty summary")
	}
	ideas := make([]string, 0, len(resp.KeyIdeas))
	for _, idea := range resp.KeyIdeas {
		idea = strings.TrimSpace(idea)
		if idea == "" {
			continue
		}
		ideas = append(ideas, idea)
		if len(ideas) == maxKeyIdeas {
			break
		}
	}
	resp.KeyIdeas = ideas
	return resp, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// The opening fence line may carry a language tag.
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

const systemPrompt = `You are an experienced travel planner. You answer with a single JSON object and nothing else: no markdown, no commentary.`

var itineraryPrompt = template.Must(template.New("itinerary").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Plan a {{.Days}}-day trip to {{.Destination}}.
{{- if .StartDate}}
The trip starts on {{.StartDate}}.
{{- end}}
{{- if gt .Budget 0.0}}
The total budget is {{printf "%.0f" .Budget}} {{.Currency}} per person.
{{- end}}
{{- if .Interests}}
The traveller is interested in: {{join .Interests ", "}}.
{{- end}}
{{- if .TravelStyle}}
Travel style: {{.TravelStyle}}.
{{- end}}

Return JSON with this shape:
{
  "title": "short catchy title",
  "description": "two sentences",
  "destination": {"city": "", "country": ""},
  "duration": {"days": {{.Days}}},
  "days": [
    {"day_number": 1, "title": "", "activities": [
      {"name": "", "description": "", "time": "09:00", "location": "",
       "cost": {"amount": 0, "currency": "{{.Currency}}"},
       "category": "sightseeing|food|adventure|culture|shopping|relaxation|transport|other"}
    ]}
  ],
  "accommodation": {"name": "", "type": "hotel|hostel|apartment|resort|guesthouse|camping|other", "cost": {"amount": 0, "currency": "{{.Currency}}"}},
  "transportation": {
    "arrival": {"type": "flight", "details": "", "cost": {"amount": 0}},
    "local": {"type": "bus", "details": "", "cost": {"amount": 0}},
    "departure": {"type": "flight", "details": "", "cost": {"amount": 0}}
  },
  "budget": {"currency": "{{.Currency}}", "breakdown": {"food": 0, "shopping": 0, "other": 0}},
  "tags": [],
  "difficulty": "easy|moderate|challenging",
  "season": "spring|summer|autumn|winter|any"
}
Include exactly {{.Days}} entries in "days" with 3 to 5 activities each.`))

var suggestionsPrompt = template.Must(template.New("suggestions").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Suggest up to {{.Count}} {{.Kind}} for a traveller visiting {{.Destination}}.
{{- if .Interests}}
Interests: {{join .Interests ", "}}.
{{- end}}
{{- if .TravelStyle}}
Travel style: {{.TravelStyle}}.
{{- end}}

Return JSON with this shape:
{"suggestions": [{"name": "", "description": "", "category": "", "estimated_cost": 0, "best_time": ""}]}`))

func renderItineraryPrompt(r ItineraryRequest) (string, error) {
	data := struct {
		ItineraryRequest
		StartDate string
	}{ItineraryRequest: r}
	if r.StartDate != nil {
		data.StartDate = r.StartDate.Format(time.DateOnly)
	}
	return render(itineraryPrompt, data)
}

func renderSuggestionsPrompt(r SuggestionRequest) (string, error) {
	return render(suggestionsPrompt, r)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

package queryparse

const schemaName = "structured_query"

var ageBuckets = map[string]struct{}{
	"13-17": {},
	"18-24": {},
	"25-34": {},
	"35-44": {},
	"45-54": {},
	"55-64": {},
	"65+":   {},
}

func nullable(t string) map[string]any {
	return map[string]any{"type": []any{t, "null"}}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// querySchema is the strict json_schema the extraction must satisfy. Every
// property is required; unknown values are null.
func querySchema() map[string]any {
	props := map[string]any{
		"brand_name": nullable("string"),
		"niche":      nullable("string"),
		"topics":     stringList(),
		"platform":   nullable("string"),
		"gender": map[string]any{
			"type": []any{"string", "null"},
			"enum": []any{"any", "male", "female", nil},
		},
		"target_age_ranges": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "enum": []any{"13-17", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}},
		},
		"target_count":     nullable("integer"),
		"target_country":   nullable("string"),
		"min_audience_pct": nullable("number"),
		"min_credibility":  nullable("number"),
		"min_engagement":   nullable("number"),
		"min_growth":       nullable("number"),
		"exclude_niches":   stringList(),
		"exclude_brands":   stringList(),
		"creative_concept": nullable("string"),
		"tone":             nullable("string"),
	}
	required := make([]any, 0, len(props))
	for _, k := range []string{
		"brand_name", "niche", "topics", "platform", "gender", "target_age_ranges",
		"target_count", "target_country", "min_audience_pct", "min_credibility",
		"min_engagement", "min_growth", "exclude_niches", "exclude_brands",
		"creative_concept", "tone",
	} {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

const systemPrompt = `You turn influencer-marketing campaign briefs into search criteria.
Extract only what the brief states. Use null for anything not stated; never invent thresholds.
Percentages are plain numbers between 0 and 100 (60% -> 60). target_country is an ISO 3166-1 alpha-2 code.
gender refers to the requested influencer audience and is one of any, male, female.`

const strictSuffix = `
Your previous answer could not be used. Respond with a single JSON object that matches the schema exactly:
no prose, no markdown, every key present, null for unknown values, integers for target_count.`

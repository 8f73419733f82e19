package analysis

// Mode selects the rubric the engine applies to the submitted text.
type Mode string

const (
	ModeLanguage    Mode = "language"
	ModePolicy      Mode = "policy"
	ModeRecruitment Mode = "recruitment"
)

// ParseMode validates a mode string against the closed enumeration.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeLanguage, ModePolicy, ModeRecruitment:
		return Mode(raw), nil
	}
	return "", ErrInvalidMode
}

const responseShape = `Return the results as JSON with the following structure: {"issues": [{"text": string, "suggestion": string, "reason": string, "severity": "low" | "medium" | "high"}]}. The "text" field must quote the flagged passage exactly as it appears in the input.`

var rubrics = map[Mode]string{
	ModeLanguage: `You are an expert at identifying non-inclusive language in general writing. Analyze the text and flag gendered terms, ableist phrasing, age-related bias, cultural insensitivity, and other exclusionary wording. For each finding provide an inclusive alternative and a short explanation. ` + responseShape,

	ModePolicy: `You are an expert at reviewing policy and governance documents for inclusive language. Analyze the text and flag wording that excludes or marginalizes groups, assumes a default reader, or encodes bias into rules and entitlements. For each finding provide an inclusive alternative and a short explanation. ` + responseShape,

	ModeRecruitment: `You are an expert at reviewing job postings and recruitment material for inclusive language. Analyze the text and flag gender-coded words, unnecessary requirements that narrow the candidate pool, culture-fit dog whistles, and ableist or age-biased phrasing. For each finding provide an inclusive alternative and a short explanation. ` + responseShape,
}

// SelectRubric returns the system instructions for a mode. Unknown modes fail
// rather than silently defaulting.
func SelectRubric(mode Mode) (string, error) {
	rubric, ok := rubrics[mode]
	if !ok {
		return "", ErrInvalidMode
	}
	return rubric, nil
}

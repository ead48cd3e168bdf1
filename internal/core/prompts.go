package core

import "strings"

// prompts.go holds the fixed phrases appended to instructions. Keeping them
// apart from the catalog makes them easy to tweak without touching the
// assembly rules.

// DefaultLanguage is the response language that needs no directive.
const DefaultLanguage = "English"

// Expertise levels offered by the Q&A workflow, mapped to the directive sent
// with every question.
var levelPrompts = map[string]string{
	"Patient-Friendly": "Please explain this simply, as if talking to a patient with no medical background. Avoid jargon. Use analogies where helpful.",
	"Medical Student":  "Explain at a medical student level. Include relevant pathophysiology, clinical correlations, and medical terminology with brief explanations.",
	"Professional":     "Provide a comprehensive, professional clinical analysis. Include mechanisms, differentials, clinical guidelines, evidence-based recommendations, and full medical terminology.",
}

const (
	// qnaLevelFormat wraps the expertise directive.
	qnaLevelFormat = "[Instruction: %s]"
	// qnaLanguageFormat forces a non-default response language. Both
	// placeholders receive the language name.
	qnaLanguageFormat = "[CRITICAL: Respond ENTIRELY in %s. All explanations, headings, and content must be in %s.]"

	reportLanguageFormat = "Respond in %s"

	facilityClosing = "Provide hospital names, estimated costs, contact info, and recommendation reasoning."
	billClosing     = "Provide an itemized table, total potential overcharge, and specific recommendations to dispute each item."
)

// Report analyzer sub-analyses.
const (
	phraseNormalRanges    = "Include normal ranges"
	phraseRecommendations = "Provide actionable recommendations"
	phraseRiskFlags       = "Flag any critical/risk values with urgency level"
)

// Medication explainer sub-analyses.
const (
	phraseGenerics     = "List generic alternatives with cost savings percentage"
	phraseInteractions = "Check all drug-drug interactions with severity levels"
	phraseSideEffects  = "List common and serious side effects"
	phraseFood         = "List food-drug interactions"
	phraseTiming       = "Provide optimal timing for each medicine"
	phraseMissedDose   = "Include missed dose instructions"
)

// Bill auditor checks.
const (
	phraseOvercharges = "Check all items vs. standard government/NPPA rates"
	phraseDuplicates  = "Identify duplicate charges"
	phraseUnbundling  = "Flag unbundled procedure items"
	phraseUpcoding    = "Flag potential upcoding"
)

// symptomTemplate is the structured triage request. Placeholders, in order:
// age, gender, symptoms, duration, severity, known conditions, medications.
const symptomTemplate = `Patient: %d-year-old %s
Symptoms: %s
Duration: %s
Severity: %d/10
Known conditions: %s
Current medications: %s

Please provide:
1. TRIAGE LEVEL: (Emergency / Urgent / Semi-Urgent / Non-Urgent) with color coding
2. POSSIBLE CONDITIONS: Top 3-5 differential diagnoses with likelihood
3. RED FLAGS: Any emergency warning signs to watch for
4. IMMEDIATE ACTIONS: What to do right now
5. RECOMMENDED SPECIALIST: Which type of doctor to consult
6. HOME CARE: Safe symptomatic relief while awaiting appointment
7. TIMELINE: When to seek care (immediately / within 24h / within a week / routine)

Format clearly with headings. Include a clear triage classification at the top.`

// shortLabel reduces a selector label such as "Patient-Friendly — Simple, no
// jargon" or "Hindi (हिंदी)" to the name used in instructions.
func shortLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " —"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, " ("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

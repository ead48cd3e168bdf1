package core

import (
	"fmt"
	"strings"

	"chronocheck/pkg"
)

// FieldKind tells the presentation layer how to render a field and the
// builder how to read it.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindChoice FieldKind = "choice"
	KindFlag   FieldKind = "flag"
	KindList   FieldKind = "list"
	KindNumber FieldKind = "number"
	KindFile   FieldKind = "file"
)

// Field declares one input of a workflow form.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Default  any
	Options  []string
	Min, Max int
}

// Slot is an optional directive. It is rendered only when Active reports
// true, and always in the position the workflow declares it.
type Slot struct {
	Name   string
	Active func(Values) bool
	Render func(Values) string
}

// ContextField is an optional free-text field appended as "Label: value".
type ContextField struct {
	Field string
	Label string
}

// Definition is the declarative description of one workflow: its form, how
// its instruction is assembled and how its outcome feeds the session.
type Definition struct {
	ID      WorkflowID
	Title   string
	Summary string
	Fields  []Field
	// AnyOf names fields of which at least one must be non-empty.
	AnyOf []string

	// Instruction assembly: Lead, active Directives, Profile, Closing,
	// then Context, joined with Separator.
	Lead       func(Values) []string
	Directives []Slot
	Profile    func(Values) []string
	Closing    string
	Context    []ContextField
	Separator  string

	Operation Operation
	Meta      func(Values) Meta

	// RecordsHistory keeps (HistoryField, answer) pairs for delivered
	// outcomes. TracksSavings runs the savings extractor on them.
	RecordsHistory bool
	HistoryField   string
	TracksSavings  bool

	Progress func(Values) []string
}

func flagSlot(name, phrase string) Slot {
	return Slot{
		Name:   name,
		Active: func(v Values) bool { return v.Flag(name) },
		Render: func(Values) string { return phrase },
	}
}

func listSlot(name, label string) Slot {
	return Slot{
		Name:   name,
		Active: func(v Values) bool { return len(v.List(name)) > 0 },
		Render: func(v Values) string { return label + ": " + strings.Join(v.List(name), ", ") },
	}
}

func languageSlot(name, format string) Slot {
	return Slot{
		Name: name,
		Active: func(v Values) bool {
			lang := v.Trimmed(name)
			return lang != "" && !strings.EqualFold(lang, DefaultLanguage)
		},
		Render: func(v Values) string {
			lang := v.Trimmed(name)
			return fmt.Sprintf(format, repeatArg(format, lang)...)
		},
	}
}

// repeatArg supplies s for every verb in format.
func repeatArg(format, s string) []any {
	n := strings.Count(format, "%s")
	args := make([]any, n)
	for i := range args {
		args[i] = s
	}
	return args
}

func documentMeta(v Values) Meta {
	name := v.Trimmed("file_name")
	return Meta{FileUploaded: name != "", FileName: name}
}

var languages = []string{"English", "Hindi", "Marathi", "Tamil", "Telugu", "Bengali", "Gujarati", "Kannada", "Malayalam", "Punjabi"}

var catalog = map[WorkflowID]*Definition{
	QnA: {
		ID:      QnA,
		Title:   "Medical Q&A",
		Summary: "Ask medical questions and get AI-powered answers in your language",
		Fields: []Field{
			{Name: "question", Label: "Your Medical Question", Kind: KindText, Required: true},
			{Name: "language", Label: "Response Language", Kind: KindChoice, Default: DefaultLanguage, Options: languages},
			{Name: "level", Label: "Explanation Level", Kind: KindChoice, Default: "Patient-Friendly",
				Options: []string{"Patient-Friendly", "Medical Student", "Professional"}},
		},
		Lead: func(v Values) []string { return []string{v.Trimmed("question")} },
		Directives: []Slot{
			{
				Name:   "level",
				Active: func(v Values) bool { return levelPrompts[v.Trimmed("level")] != "" },
				Render: func(v Values) string { return fmt.Sprintf(qnaLevelFormat, levelPrompts[v.Trimmed("level")]) },
			},
			languageSlot("language", qnaLanguageFormat),
		},
		Separator:      "\n\n",
		Operation:      OpGeneralQuery,
		RecordsHistory: true,
		HistoryField:   "question",
		Progress: func(v Values) []string {
			return []string{
				"Parsing medical query...",
				"Retrieving medical knowledge base...",
				fmt.Sprintf("Generating %s response in %s...", v.Trimmed("level"), v.Trimmed("language")),
				"Formatting structured answer...",
			}
		},
	},
	ReportAnalyzer: {
		ID:      ReportAnalyzer,
		Title:   "Report Analyzer",
		Summary: "Upload your medical report for comprehensive AI analysis",
		Fields: []Field{
			{Name: "file_name", Label: "Medical Report", Kind: KindFile, Required: true},
			{Name: "focus", Label: "Analysis Focus", Kind: KindChoice, Default: "Comprehensive",
				Options: []string{"Comprehensive", "Abnormal Values", "Risk Assessment", "Quick Summary", "Trend Analysis", "Diet & Lifestyle Recommendations"}},
			{Name: "language", Label: "Response Language", Kind: KindChoice, Default: DefaultLanguage, Options: languages[:6]},
			{Name: "normal_ranges", Label: "Show Normal Ranges", Kind: KindFlag, Default: true},
			{Name: "recommendations", Label: "Include Recommendations", Kind: KindFlag, Default: true},
			{Name: "risk_flags", Label: "Flag Risk Indicators", Kind: KindFlag, Default: true},
			{Name: "patient_age", Label: "Patient Age", Kind: KindNumber, Default: 35, Min: 0, Max: 120},
			{Name: "notes", Label: "Additional Context", Kind: KindText},
		},
		Lead: func(v Values) []string {
			age, _ := v.Int("patient_age")
			return []string{v.Trimmed("focus") + " analysis", fmt.Sprintf("Patient age: %d", age)}
		},
		Directives: []Slot{
			flagSlot("normal_ranges", phraseNormalRanges),
			flagSlot("recommendations", phraseRecommendations),
			flagSlot("risk_flags", phraseRiskFlags),
			languageSlot("language", reportLanguageFormat),
		},
		Context:   []ContextField{{Field: "notes", Label: "Additional context"}},
		Separator: " | ",
		Operation: OpAnalyzeDocument,
		Meta:      documentMeta,
		Progress: func(v Values) []string {
			return []string{
				"Reading uploaded document...",
				"Extracting medical parameters...",
				fmt.Sprintf("Running %s analysis...", v.Trimmed("focus")),
				"Cross-referencing medical databases...",
				"Generating structured report...",
			}
		},
	},
	FacilityFinder: {
		ID:      FacilityFinder,
		Title:   "Hospital Finder",
		Summary: "Find the right hospital for your medical needs",
		Fields: []Field{
			{Name: "query", Label: "What medical service do you need?", Kind: KindText, Required: true},
			{Name: "location", Label: "City / Region", Kind: KindChoice, Default: "Pune",
				Options: []string{"Pune", "Mumbai", "Delhi", "Chennai", "Bangalore", "Hyderabad", "Kolkata", "Ahmedabad",
					"Nagpur", "Nashik", "Aurangabad", "Indore", "Bhopal", "Lucknow", "Jaipur", "Chandigarh"}},
			{Name: "specializations", Label: "Specializations needed", Kind: KindList,
				Options: []string{"Cardiology", "Neurology", "Orthopedics", "Pediatrics", "Oncology", "Nephrology",
					"Gastroenterology", "Pulmonology", "General Surgery", "Emergency & Trauma", "Dermatology",
					"Psychiatry", "Ophthalmology", "ENT", "Gynecology", "Urology", "Endocrinology", "Rheumatology"}},
			{Name: "preferences", Label: "Preferences", Kind: KindList,
				Options: []string{"NABH Accredited", "NABL Lab", "Insurance Empanelled", "24×7 Emergency",
					"Government Hospital", "Private Hospital", "Teaching Hospital", "Day Care Center"}},
			{Name: "insurance", Label: "Insurance / TPA", Kind: KindText},
		},
		Lead: func(v Values) []string {
			return []string{fmt.Sprintf("Find hospitals in %s for: %s", v.Trimmed("location"), v.Trimmed("query"))}
		},
		Directives: []Slot{
			listSlot("specializations", "Specializations"),
			listSlot("preferences", "Preferences"),
		},
		Closing:   facilityClosing,
		Context:   []ContextField{{Field: "insurance", Label: "Insurance"}},
		Separator: " | ",
		Operation: OpSearchFacilities,
		Meta:      func(v Values) Meta { return Meta{Location: v.Trimmed("location")} },
		Progress: func(v Values) []string {
			return []string{
				fmt.Sprintf("Searching hospitals in %s...", v.Trimmed("location")),
				"Filtering by specialization...",
				"Checking accreditation and quality ratings...",
				"Ranking by relevance to your needs...",
			}
		},
	},
	MedicationExplainer: {
		ID:      MedicationExplainer,
		Title:   "Medicine Explainer",
		Summary: "Understand your prescription — doses, side effects, interactions, and generics",
		Fields: []Field{
			{Name: "file_name", Label: "Prescription or Medicine List", Kind: KindFile},
			{Name: "medicines", Label: "Medicine names / prescription text", Kind: KindText},
			{Name: "detail_level", Label: "Detail Level", Kind: KindChoice, Default: "Basic",
				Options: []string{"Basic", "Moderate", "Detailed", "Expert"}},
			{Name: "conditions", Label: "Patient conditions", Kind: KindText},
			{Name: "generics", Label: "Generic Alternatives", Kind: KindFlag, Default: true},
			{Name: "interactions", Label: "Drug Interactions", Kind: KindFlag, Default: true},
			{Name: "side_effects", Label: "Side Effects", Kind: KindFlag, Default: true},
			{Name: "food", Label: "Food Interactions", Kind: KindFlag, Default: true},
			{Name: "timing", Label: "Best Time to Take", Kind: KindFlag, Default: true},
			{Name: "missed_dose", Label: "Missed Dose Guidance", Kind: KindFlag, Default: false},
		},
		AnyOf: []string{"file_name", "medicines"},
		Lead: func(v Values) []string {
			parts := []string{v.Trimmed("detail_level") + " medicine analysis"}
			if meds := v.Trimmed("medicines"); meds != "" {
				parts = append(parts, "Medicines/text: "+meds)
			}
			return parts
		},
		Directives: []Slot{
			flagSlot("generics", phraseGenerics),
			flagSlot("interactions", phraseInteractions),
			flagSlot("side_effects", phraseSideEffects),
			flagSlot("food", phraseFood),
			flagSlot("timing", phraseTiming),
			flagSlot("missed_dose", phraseMissedDose),
		},
		Context:   []ContextField{{Field: "conditions", Label: "Patient conditions"}},
		Separator: " | ",
		Operation: OpExplainMedication,
		Meta:      documentMeta,
		Progress: func(Values) []string {
			return []string{
				"Reading prescription...",
				"Identifying medicines and doses...",
				"Checking interaction database...",
				"Finding generic alternatives...",
				"Compiling medicine guide...",
			}
		},
	},
	BillAuditor: {
		ID:      BillAuditor,
		Title:   "Medical Bill Auditor",
		Summary: "Detect overcharges, duplicate billing, and inflated costs in your hospital bills",
		Fields: []Field{
			{Name: "file_name", Label: "Medical Bill", Kind: KindFile, Required: true},
			{Name: "overcharges", Label: "Overcharges vs. standard rates", Kind: KindFlag, Default: true},
			{Name: "duplicates", Label: "Duplicate / double-billed items", Kind: KindFlag, Default: true},
			{Name: "unbundling", Label: "Unbundling of procedure charges", Kind: KindFlag, Default: true},
			{Name: "upcoding", Label: "Upcoding / unnecessary upgrades", Kind: KindFlag, Default: true},
			{Name: "hospital_type", Label: "Hospital Type", Kind: KindChoice, Default: "Private",
				Options: []string{"Private", "Government", "Trust Hospital", "Corporate Chain"}},
			{Name: "payment_mode", Label: "Payment Mode", Kind: KindChoice, Default: "Self Pay",
				Options: []string{"Self Pay", "Health Insurance", "CGHS", "ECHS", "Ayushman Bharat", "ESI"}},
			{Name: "city", Label: "City (for local rate comparison)", Kind: KindChoice, Default: "Pune",
				Options: []string{"Pune", "Mumbai", "Delhi", "Chennai", "Bangalore", "Hyderabad", "Kolkata", "Nagpur"}},
			{Name: "notes", Label: "Additional context", Kind: KindText},
		},
		Lead: func(Values) []string { return []string{"Comprehensive medical bill audit"} },
		Directives: []Slot{
			flagSlot("overcharges", phraseOvercharges),
			flagSlot("duplicates", phraseDuplicates),
			flagSlot("unbundling", phraseUnbundling),
			flagSlot("upcoding", phraseUpcoding),
		},
		Profile: func(v Values) []string {
			return []string{fmt.Sprintf("Hospital type: %s | Payment: %s | City: %s",
				v.Trimmed("hospital_type"), v.Trimmed("payment_mode"), v.Trimmed("city"))}
		},
		Closing:       billClosing,
		Context:       []ContextField{{Field: "notes", Label: "Context"}},
		Separator:     " | ",
		Operation:     OpAuditBill,
		Meta:          documentMeta,
		TracksSavings: true,
		Progress: func(Values) []string {
			return []string{
				"Reading bill items...",
				"Comparing with NPPA / government standard rates...",
				"Scanning for duplicate and bundled charges...",
				"Calculating overcharge totals...",
				"Generating dispute recommendations...",
			}
		},
	},
	SymptomChecker: {
		ID:      SymptomChecker,
		Title:   "Symptom Checker",
		Summary: "Describe your symptoms for an AI triage assessment with urgency classification",
		Fields: []Field{
			{Name: "symptoms", Label: "Describe Your Symptoms in Detail", Kind: KindText, Required: true},
			{Name: "age", Label: "Age", Kind: KindNumber, Default: 30, Min: 0, Max: 120},
			{Name: "gender", Label: "Gender", Kind: KindChoice, Default: "Male", Options: []string{"Male", "Female", "Other"}},
			{Name: "duration", Label: "Symptom Duration", Kind: KindChoice, Default: "Just started (minutes-hours)",
				Options: []string{"Just started (minutes-hours)", "1–3 days", "4–7 days", "1–4 weeks", "More than 1 month"}},
			{Name: "severity", Label: "Severity (1–10)", Kind: KindNumber, Default: 5, Min: 1, Max: 10},
			{Name: "conditions", Label: "Known Medical Conditions", Kind: KindText},
			{Name: "medications", Label: "Current Medicines", Kind: KindText},
		},
		Lead: func(v Values) []string {
			age, _ := v.Int("age")
			severity, _ := v.Int("severity")
			return []string{fmt.Sprintf(symptomTemplate,
				age, v.Trimmed("gender"), v.Trimmed("symptoms"), v.Trimmed("duration"), severity,
				orNone(v.Trimmed("conditions")), orNone(v.Trimmed("medications")))}
		},
		Operation: OpGeneralQuery,
		Progress: func(v Values) []string {
			age, _ := v.Int("age")
			return []string{
				"Parsing symptom profile...",
				fmt.Sprintf("Analyzing %d-year-old %s patient data...", age, v.Trimmed("gender")),
				"Running differential diagnosis engine...",
				"Calculating triage urgency...",
				"Generating care recommendations...",
			}
		},
	},
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// Lookup returns the definition of a submittable workflow.
func Lookup(id WorkflowID) (*Definition, error) {
	def, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a consultation workflow", ErrUnknownWorkflow, id)
	}
	return def, nil
}

// Catalog lists the consultation workflows in dashboard order.
func Catalog() []*Definition {
	out := make([]*Definition, 0, len(catalog))
	for _, id := range States() {
		if def, ok := catalog[id]; ok {
			out = append(out, def)
		}
	}
	return out
}

// Info describes the workflow for the presentation layer.
func (d *Definition) Info() pkg.WorkflowInfo {
	info := pkg.WorkflowInfo{
		ID:      string(d.ID),
		Title:   d.Title,
		Summary: d.Summary,
		AnyOf:   d.AnyOf,
	}
	for _, f := range d.Fields {
		info.Fields = append(info.Fields, pkg.FieldInfo{
			Name:     f.Name,
			Label:    f.Label,
			Kind:     string(f.Kind),
			Required: f.Required,
			Default:  f.Default,
			Options:  f.Options,
		})
	}
	if d.Progress != nil {
		info.Progress = d.Progress(d.normalize(Values{}))
	}
	return info
}

// normalize applies field defaults and reduces selector labels to their
// short form. The input is not modified.
func (d *Definition) normalize(in Values) Values {
	v := in.clone()
	for _, f := range d.Fields {
		if _, present := v[f.Name]; !present || (f.Kind != KindFlag && !v.Has(f.Name)) {
			if f.Default != nil {
				v[f.Name] = f.Default
			}
			continue
		}
		if f.Kind == KindChoice {
			v[f.Name] = d.canonicalOption(f, shortLabel(v.Text(f.Name)))
		}
	}
	return v
}

// canonicalOption matches a value against the options case-insensitively
// and returns the declared spelling. Unknown values are returned unchanged.
func (d *Definition) canonicalOption(f Field, value string) string {
	for _, opt := range f.Options {
		if strings.EqualFold(opt, value) || strings.EqualFold(shortLabel(opt), value) {
			return opt
		}
	}
	return value
}

package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rating bands on the /6.0 overall score
const (
	RatingStrong   = "Strong"
	RatingModerate = "Moderate"
	RatingWeak     = "Weak"
)

var premiumMarkets = map[string]bool{"PJM": true, "NYISO": true, "ISONE": true}

// BreakdownItem is one qualitative factor behind a score
type BreakdownItem struct {
	Factor   string `json:"factor"`
	Analysis string `json:"analysis"`
	Value    string `json:"value"`
}

// Analysis is the expert write-up for a single project
type Analysis struct {
	ProjectName    string          `json:"project_name"`
	AssessmentDate time.Time       `json:"assessment_date"`
	OverallScore   float64         `json:"overall_score"`
	ThermalScore   float64         `json:"thermal_score"`
	RedevScore     float64         `json:"redevelopment_score"`
	Rating         string          `json:"rating"`
	RatingClass    string          `json:"rating_class"`
	Thermal        []BreakdownItem `json:"thermal_breakdown"`
	Redevelopment  []BreakdownItem `json:"redevelopment_breakdown"`
	Confidence     int             `json:"confidence"`
	Recommendation string          `json:"recommendation"`
	Strengths      []string        `json:"strengths"`
	Risks          []string        `json:"risks"`
}

// thermalFactors holds the parsed inputs shared by breakdowns, strengths and risks
type thermalFactors struct {
	cod             Number
	iso             string
	transactability string
	environmental   float64
	optimization    string
	market          float64
	infra           float64
	ix              float64
}

// Analyze builds the expert analysis from a detail map keyed by column label.
// Scores come straight from the sheet; the breakdowns only explain them.
func Analyze(detail map[string]string, now time.Time) Analysis {
	if now.IsZero() {
		now = time.Now()
	}
	get := func(f Field) string { return strings.TrimSpace(detail[DefaultLabel(f)]) }
	year := now.Year()

	cod := ExtractYear(get(FieldLegacyCOD), year)
	if !cod.Valid {
		cod = ExtractYear(get(FieldPlantCOD), year)
	}
	factors := thermalFactors{
		cod:             cod,
		iso:             get(FieldISO),
		transactability: get(FieldTransactibility),
		environmental:   ParseNumber(get(FieldEnvironmental)).Or(2),
		optimization:    get(FieldThermalOptimization),
		market:          ParseNumber(get(FieldMarketScore)).Or(2),
		infra:           ParseNumber(get(FieldInfra)).Or(2),
		ix:              ParseNumber(get(FieldIX)).Or(2),
	}

	overall := round(ParseNumber(get(FieldOverall)).Or(0), 1)
	a := Analysis{
		ProjectName:    projectName(get(FieldProjectName), get(FieldCodename)),
		AssessmentDate: now,
		OverallScore:   overall,
		ThermalScore:   round(ParseNumber(get(FieldThermal)).Or(0), 1),
		RedevScore:     round(ParseNumber(get(FieldRedev)).Or(0), 1),
		Thermal:        thermalBreakdown(factors),
		Redevelopment:  redevBreakdown(factors),
		Recommendation: recommendation(overall),
		Strengths:      strengths(factors),
		Risks:          risks(factors),
	}
	a.Rating = rating(overall)
	a.RatingClass = strings.ToLower(a.Rating)

	a.Confidence = 70
	if get(FieldOverall) != "" {
		a.Confidence += 10
	}
	if get(FieldThermal) != "" {
		a.Confidence += 5
	}
	if get(FieldRedev) != "" {
		a.Confidence += 5
	}
	if factors.iso != "" {
		a.Confidence += 5
	}
	if a.Confidence > 95 {
		a.Confidence = 95
	}
	return a
}

// Markdown renders the analysis as a markdown report
func (a Analysis) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(a.ProjectName))
	fmt.Fprintf(&b, "**Overall:** %.1f / 6.0 (%s)  \n", a.OverallScore, a.Rating)
	fmt.Fprintf(&b, "**Thermal:** %.1f / 3.0  \n", a.ThermalScore)
	fmt.Fprintf(&b, "**Redevelopment:** %.1f / 3.0  \n", a.RedevScore)
	fmt.Fprintf(&b, "**Confidence:** %d%%  \n", a.Confidence)
	fmt.Fprintf(&b, "**Assessed:** %s\n\n", a.AssessmentDate.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "> %s\n\n", a.Recommendation)

	writeBreakdown(&b, "Thermal Operating Breakdown", a.Thermal)
	writeBreakdown(&b, "Redevelopment Breakdown", a.Redevelopment)

	b.WriteString("## Strengths\n\n")
	for _, s := range a.Strengths {
		fmt.Fprintf(&b, "- %s\n", escapeMarkdown(s))
	}
	b.WriteString("\n## Risks\n\n")
	for _, r := range a.Risks {
		fmt.Fprintf(&b, "- %s\n", escapeMarkdown(r))
	}
	return b.String()
}

func writeBreakdown(b *strings.Builder, title string, items []BreakdownItem) {
	fmt.Fprintf(b, "## %s\n\n| Factor | Value | Analysis |\n|---|---|---|\n", title)
	for _, item := range items {
		value := item.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", item.Factor, escapeMarkdown(value), escapeMarkdown(item.Analysis))
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"(", `\(`, ")", `\)`, "<", `\<`, ">", `\>`, "#", `\#`, "!", `\!`,
	"|", `\|`, "~", `\~`, "\r", " ", "\n", " ",
)

// escapeMarkdown neutralises cell text so it renders literally: no links, emphasis or headings
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func thermalBreakdown(f thermalFactors) []BreakdownItem {
	codValue := ""
	codAnalysis := "Commissioning date unknown"
	if f.cod.Valid {
		codValue = strconv.Itoa(int(f.cod.Value))
		switch {
		case f.cod.Value < 2000:
			codAnalysis = "Vintage plant (<2000) - higher retirement potential"
		case f.cod.Value <= 2005:
			codAnalysis = "Mid-age plant (2000-2005)"
		default:
			codAnalysis = "Newer plant (>2005) - lower retirement likelihood"
		}
	}

	var market string
	switch f.iso {
	case "PJM", "NYISO", "ISONE":
		market = "Premium market with strong pricing"
	case "MISO North", "SERC":
		market = "Established market"
	case "SPP", "MISO South":
		market = "Developing market"
	default:
		market = "Challenging market (ERCOT, WECC, CAISO)"
	}

	var transact string
	switch {
	case strings.Contains(f.transactability, "Bilateral") && strings.Contains(f.transactability, "developed"):
		transact = "Bilateral with developed relationship"
	case strings.Contains(f.transactability, "Bilateral"):
		transact = "Bilateral with new relationship"
	case strings.Contains(f.transactability, "Competitive"), strings.Contains(f.transactability, ">10"):
		transact = "Competitive process (>10 bidders)"
	default:
		transact = "Unknown transactability"
	}

	optimization := "No identifiable value add"
	if strings.Contains(f.optimization, "Readily") || strings.Contains(f.optimization, "value add") {
		optimization = "Readily apparent value add"
	}

	return []BreakdownItem{
		{Factor: "Unit COD", Analysis: codAnalysis, Value: codValue},
		{Factor: "Markets", Analysis: market, Value: f.iso},
		{Factor: "Transactability", Analysis: transact, Value: f.transactability},
		{Factor: "Environmental", Analysis: band(f.environmental,
			"Known & mitigable with advantage", "Known & mitigable", "Unknown environmental issues", "Not mitigable"),
			Value: formatFactor(f.environmental)},
		{Factor: "Thermal Optimization", Analysis: optimization, Value: f.optimization},
	}
}

func redevBreakdown(f thermalFactors) []BreakdownItem {
	return []BreakdownItem{
		{Factor: "Market", Analysis: band(f.market,
			"Primary market position", "Secondary market position", "Uncertain market position", "Challenging market position"),
			Value: formatFactor(f.market)},
		{Factor: "Infrastructure", Analysis: band(f.infra,
			"Sufficient utilities onsite", "Low cost to connect utilities", "High cost/uncertain connection", "No clear path for utilities"),
			Value: formatFactor(f.infra)},
		{Factor: "Interconnection", Analysis: band(f.ix,
			"Secured interconnection rights", "No upgrades needed for interconnection", "Minimal upgrades required", "Major upgrades required"),
			Value: formatFactor(f.ix)},
	}
}

func strengths(f thermalFactors) []string {
	var out []string
	if f.environmental >= 2 {
		out = append(out, "Environmental conditions known and mitigable")
	}
	if premiumMarkets[f.iso] {
		out = append(out, fmt.Sprintf("Favorable market position in %s", f.iso))
	}
	if strings.Contains(f.transactability, "Bilateral") {
		out = append(out, "Bilateral transaction structure provides relationship advantage")
	}
	if f.market >= 2 {
		out = append(out, "Good market position for redevelopment")
	}
	if f.infra >= 2 {
		out = append(out, "Adequate infrastructure for future development")
	}
	if len(out) == 0 {
		out = append(out,
			"Site has existing energy infrastructure that can be leveraged",
			"Potential for modernization and efficiency improvements")
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

func risks(f thermalFactors) []string {
	var out []string
	if f.cod.Valid && f.cod.Value < 2000 {
		out = append(out, "Vintage plant may have higher maintenance and retirement risks")
	}
	if !premiumMarkets[f.iso] {
		market := f.iso
		if market == "" {
			market = "(unspecified)"
		}
		out = append(out, fmt.Sprintf("Market %s may have limited pricing opportunities", market))
	}
	if f.ix < 2 {
		out = append(out, "Interconnection upgrades may be required for redevelopment")
	}
	if len(out) == 0 {
		out = append(out,
			"Standard market and operational risks associated with energy projects",
			"Regulatory changes could impact project viability")
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func rating(overall float64) string {
	switch {
	case overall >= 4.5:
		return RatingStrong
	case overall >= 3.0:
		return RatingModerate
	default:
		return RatingWeak
	}
}

func recommendation(overall float64) string {
	switch {
	case overall >= 4.5:
		return "Highly Recommended - Strong investment opportunity"
	case overall >= 3.5:
		return "Recommended - Good potential with manageable risks"
	case overall >= 2.5:
		return "Consider with Caution - Requires detailed due diligence"
	default:
		return "Not Recommended - Significant challenges identified"
	}
}

// band picks the label for a 0-3 factor score
func band(score float64, top, second, third, bottom string) string {
	switch {
	case score >= 3:
		return top
	case score >= 2:
		return second
	case score >= 1:
		return third
	default:
		return bottom
	}
}

func formatFactor(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func projectName(name, codename string) string {
	switch {
	case name != "":
		return name
	case codename != "":
		return codename
	default:
		return "Unnamed project"
	}
}

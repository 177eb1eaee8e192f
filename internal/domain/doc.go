// Package domain models disaster bulletins, hospital resource aggregates and
// the resource recommendations derived from them.
//
// # Data Sources
//
// Bulletins arrive as JSON records in two layouts produced by different
// upstream agencies. Both share id, type, reported_at, urgency,
// severity_level, confidence and summary; they differ in where affected
// areas are listed:
//
//	Shape A (disaster_a):  "locations": ["Guwahati", "Dibrugarh"]
//	Shape B (disaster_b):  "regions_covered": ["Kamrup"], "primary_focus_area": "Kamrup"
//
// Resource data is a single wrapper object holding one breakdown per
// category. Each breakdown carries a grand_total and the sub-category counts
// DME, DM_RHS, DPH and DIR_ESI, which are copied through in that order.
//
// Facility status records are a supplementary sample feed describing free
// ICU, oxygen and ventilator beds at named hospitals.
//
// # Normalization Conventions
//
// Timestamps:
//
//	RFC 3339 with an explicit offset. A trailing "Z" means UTC.
//	Records without an offset are skipped since their age is ambiguous.
//
// Severity classification (case-insensitive substring match, first hit wins):
//
//	"critical" in text, or urgency >= 5         → Critical
//	"warning" or "high" in text, or urgency >= 4 → Warning
//	otherwise                                   → Low
//
// The raw severity text is kept alongside the category because the
// recommender's urgency bonus keys on the agencies' own vocabulary
// ("high", "moderate"), which the three categories cannot express.
//
// Confidence is lower-cased; anything other than high, medium or low
// becomes medium.
//
// # Scoring
//
// A recommendation score is capacity/10000 × urgency value × freshness,
// with an extra ×1.2 when the urgency value exceeds 3. Scores are relative
// ranking units, not probabilities. See [Recommender.Recommend].
package domain

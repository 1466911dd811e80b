package normalize

// CookCountyRules is the built-in rule table for the assessor's residential
// sales and characteristics extracts. Codes follow the assessor's data
// dictionary.
func CookCountyRules() []Rule {
	return []Rule{
		{
			Column:  "arms_length",
			CodeMap: map[string]string{"0": "no", "1": "yes", "9": "unknown"},
		},
		{
			Column: "deed_type",
			CodeMap: map[string]string{
				"W": "Warranty",
				"O": "Other",
				"o": "Other",
				"T": "Trustee",
				"Y": "Trustee",
			},
		},
		{
			Column: "fs_flood_risk_direction",
			CodeMap: map[string]string{
				"-1": "Descreasing", // sic, kept verbatim from the source data dictionary
				"0":  "Stationary",
				"1":  "Increasing",
			},
		},
		{
			Column:  "fs_flood_factor",
			Type:    "int",
			Ordered: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
		},
		{
			Column: "mailing_city",
			Replacements: []Replacement{
				{Pattern: `(?i)^CHGO\b`, With: "CHICAGO"},
				{Pattern: `(?i)\bHGTS\b`, With: "HEIGHTS"},
				{Pattern: `(?i)\bPK\b`, With: "PARK"},
				{Pattern: `(?i)\bVLG\b`, With: "VILLAGE"},
			},
			TitleCase: true,
		},
		{Column: "nbhd", ZeroPad: 3},
		{Column: "sale_date", Type: "date", DateLayout: "1/2/2006 3:04:05 PM"},
		{Column: "recorded_date", Type: "date", DateLayout: "1/2/2006 3:04:05 PM"},
		{Column: "ohare_noise", Type: "bool"},
		{Column: "floodplain", Type: "bool"},
		{Column: "near_major_road", Type: "bool"},
		{Column: "latitude", Type: "float"},
		{Column: "longitude", Type: "float"},
	}
}

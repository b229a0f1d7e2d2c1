package types

// Head tags that matter to AI crawlers.
type MetaTagSignals struct {
	HasTitle         bool   `json:"has_title"`
	HasDescription   bool   `json:"has_description"`
	HasCanonical     bool   `json:"has_canonical"`
	HasOGTitle       bool   `json:"has_og_title"`
	HasOGDescription bool   `json:"has_og_description"`
	HasOGImage       bool   `json:"has_og_image"`
	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	CanonicalURL     string `json:"canonical_url,omitempty"`
	OGTitle          string `json:"og_title,omitempty"`
	OGDescription    string `json:"og_description,omitempty"`
	OGImage          string `json:"og_image,omitempty"`
}

// Body statistics used by the content check.
type ContentSignals struct {
	HeadingCount          int      `json:"heading_count"`
	HasH1                 bool     `json:"has_h1"`
	H1Text                string   `json:"h1_text,omitempty"`
	StatisticCount        int      `json:"statistic_count"`
	ExternalCitationCount int      `json:"external_citation_count"`
	ExternalLinks         []string `json:"external_links,omitempty"`
	WordCount             int      `json:"word_count"`
}

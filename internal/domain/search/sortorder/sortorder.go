package sortorder

// SortOrder is the ordering requested from the search index.
type SortOrder string

// Sort order constants.
const (
	// Relevance is the index's own ranking. Download count ordering maps here too.
	Relevance       SortOrder = "Relevance"
	Published       SortOrder = "Published"
	LastEdited      SortOrder = "LastEdited"
	TitleAscending  SortOrder = "TitleAscending"
	TitleDescending SortOrder = "TitleDescending"
)

// queryValues are the sortBy names understood by the search service.
var queryValues = map[SortOrder]string{
	Relevance:       "relevance",
	Published:       "published",
	LastEdited:      "lastEdited",
	TitleAscending:  "title-asc",
	TitleDescending: "title-desc",
}

// IsValid checks if the sort order is one of the supported values.
func (s SortOrder) IsValid() bool {
	_, ok := queryValues[s]
	return ok
}

// QueryValue returns the sortBy parameter value for the search service.
// Unknown values fall back to relevance.
func (s SortOrder) QueryValue() string {
	if v, ok := queryValues[s]; ok {
		return v
	}
	return queryValues[Relevance]
}

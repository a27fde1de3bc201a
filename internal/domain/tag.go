package domain

// TagCount is how many stores carry a tag. It is computed on demand from the
// tags of all stores and never stored.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagPage is everything the tag browsing view needs in one value: the tag
// distribution across all stores plus the stores matching the selected tag.
// Tag is empty when no tag is selected; Stores then holds every tagged store.
type TagPage struct {
	Tag    string     `json:"tag"`
	Tags   []TagCount `json:"tags"`
	Stores []Store    `json:"stores"`
}

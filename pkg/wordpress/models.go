package wordpress

// Raw REST API resource shapes. These never leave this package; every record
// is mapped into a Post at the strategy boundary.

type userResource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type renderedText struct {
	Rendered string `json:"rendered"`
}

type postResource struct {
	Title  renderedText `json:"title"`
	Link   string       `json:"link"`
	Status string       `json:"status"`
	Date   string       `json:"date"`
}

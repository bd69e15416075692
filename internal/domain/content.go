package domain

// PageContent is the rendered textual and structural content of one source
type PageContent struct {
	URL    string     `json:"url"`
	HTML   string     `json:"html"`
	Text   string     `json:"text"` // visible text, one block element per line
	Images []ImageRef `json:"images"`
}

// ImageRef is an image referenced by a page. Width and Height are the
// declared dimensions and are zero when the markup does not state them.
type ImageRef struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Title  string `json:"title,omitempty"`
	Class  string `json:"class,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Area returns the declared pixel area, or zero when unknown
func (i ImageRef) Area() int {
	return i.Width * i.Height
}

// Image is a downloaded image with decoded dimensions
type Image struct {
	URL    string
	Data   []byte
	Format string
	Width  int
	Height int
}

// Area returns the decoded pixel area
func (i *Image) Area() int {
	return i.Width * i.Height
}

// OCRToken is one recognized text line with a confidence in [0,1]
type OCRToken struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

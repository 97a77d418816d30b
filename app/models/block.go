package models

// Block is one structured rich-text unit of a post body.
type Block struct {
	Key      string    `json:"_key,omitempty"`
	Type     string    `json:"_type"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`

	// Set on image blocks only.
	Asset *Reference `json:"asset,omitempty"`
	Alt   string     `json:"alt,omitempty"`
}

// Span is an inline run of text inside a block.
type Span struct {
	Key   string   `json:"_key,omitempty"`
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef defines an annotation (such as a link) referenced from span marks.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`
}

// PlainText concatenates the text of all spans in the block.
func (b Block) PlainText() string {
	var s string
	for _, c := range b.Children {
		s += c.Text
	}
	return s
}

// MarkDef returns the definition for the given mark key.
func (b Block) MarkDef(key string) (MarkDef, bool) {
	for _, d := range b.MarkDefs {
		if d.Key == key {
			return d, true
		}
	}
	return MarkDef{}, false
}

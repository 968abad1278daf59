package domain

// Narrative is the prose attached to one view. Notes are keyed by chart id.
type Narrative struct {
	Title string            `json:"title" yaml:"title"`
	Intro string            `json:"intro" yaml:"intro"`
	Notes map[string]string `json:"notes,omitempty" yaml:"notes"`
}

// Note returns the text attached to chart id, or "".
func (n Narrative) Note(chart string) string {
	if n.Notes == nil {
		return ""
	}
	return n.Notes[chart]
}

// Definition explains one term of the glossary.
type Definition struct {
	Term string `json:"term" yaml:"term"`
	Text string `json:"text" yaml:"text"`
}

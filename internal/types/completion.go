package types

// CompletionEntry is one row offered to the editor: Label is
// "{member}\t{class}" and InsertText is a snippet template.
type CompletionEntry struct {
	Label      string `json:"label"`
	InsertText string `json:"insert_text"`
}

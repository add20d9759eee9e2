package model

import "unicode/utf8"

type SnippetID = int64

type Snippet struct {
	ID       SnippetID `json:"id"`
	Language string    `json:"language"`
	Code     string    `json:"code"`
}

// Length counts code points, the unit typed characters are measured in.
func (s Snippet) Length() int {
	return utf8.RuneCountInString(s.Code)
}

// SnippetSelector picks the race text. An explicit ID wins over Language;
// an empty selector means any snippet.
type SnippetSelector struct {
	ID       *SnippetID
	Language string
}

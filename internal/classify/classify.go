// Package classify routes a question to the database, the documents, or both
// by keyword matching.
package classify

import "strings"

type Type string

const (
	TypeSQL      Type = "SQL"
	TypeDocument Type = "DOCUMENT"
	TypeHybrid   Type = "HYBRID"
)

var (
	sqlKeywords      = []string{"salary", "employee", "department", "hired", "count", "average", "list"}
	documentKeywords = []string{"skills", "experience", "resume", "review", "contract", "performance", "contact", "email", "link", "github"}
)

// Classify matches keywords as case-insensitive substrings, so "employees"
// counts as "employee". Questions matching both lists or neither are hybrid.
func Classify(text string) Type {
	lower := strings.ToLower(text)
	isSQL := containsAny(lower, sqlKeywords)
	isDocument := containsAny(lower, documentKeywords)
	switch {
	case isSQL && !isDocument:
		return TypeSQL
	case isDocument && !isSQL:
		return TypeDocument
	default:
		return TypeHybrid
	}
}

func (t Type) WantsDatabase() bool {
	return t == TypeSQL || t == TypeHybrid
}

func (t Type) WantsDocuments() bool {
	return t == TypeDocument || t == TypeHybrid
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

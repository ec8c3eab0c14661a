package sqlexec

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hybridqa/hybridqa/internal/query"
	"github.com/hybridqa/hybridqa/internal/sqldb"
)

var readOnlyKeywords = map[string]bool{
	"SELECT": true,
	"WITH":   true,
}

// writeKeywords may not appear anywhere outside quotes and comments, which
// catches data-modifying CTEs such as WITH x AS (...) DELETE ...
var writeKeywords = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"MERGE":    true,
	"UPSERT":   true,
	"DROP":     true,
	"ALTER":    true,
	"CREATE":   true,
	"TRUNCATE": true,
	"GRANT":    true,
	"REVOKE":   true,
	"ATTACH":   true,
	"DETACH":   true,
	"COPY":     true,
	"VACUUM":   true,
	"PRAGMA":   true,
	"CALL":     true,
	"INTO":     true,
}

type sqlToken struct {
	word      string
	separator bool
}

func checkReadOnly(sqlText string, dialect sqldb.Dialect) error {
	tokens := scanSQL(sqlText, dialect == sqldb.DialectMySQL)
	if len(tokens) == 0 || tokens[0].separator {
		return fmt.Errorf("%w: got empty statement", query.ErrReadOnly)
	}
	if !readOnlyKeywords[tokens[0].word] {
		return fmt.Errorf("%w: got %s", query.ErrReadOnly, tokens[0].word)
	}
	for _, token := range tokens[1:] {
		if token.separator {
			return fmt.Errorf("%w: multiple statements", query.ErrReadOnly)
		}
		if writeKeywords[token.word] {
			return fmt.Errorf("%w: %s is not allowed", query.ErrReadOnly, token.word)
		}
	}
	return nil
}

// scanSQL returns the upper-cased bare words and semicolons of a statement,
// skipping comments, string literals and quoted identifiers. Unterminated
// quotes and comments swallow the rest of the text. MySQL additionally gets
// # comments and backslash escapes inside strings.
func scanSQL(sqlText string, mysql bool) []sqlToken {
	var tokens []sqlToken
	runes := []rune(sqlText)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-', mysql && r == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				i++
			}
			i += 2
		case r == '\'' || r == '"' || r == '`':
			i = skipQuoted(runes, i, mysql)
		case r == ';':
			tokens = append(tokens, sqlToken{separator: true})
			i++
		case isWordRune(r):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			tokens = append(tokens, sqlToken{word: strings.ToUpper(string(runes[start:i]))})
		default:
			i++
		}
	}
	return tokens
}

// skipQuoted returns the index just past the quoted run starting at i. A
// doubled quote character is an escaped quote.
func skipQuoted(runes []rune, i int, mysql bool) int {
	quote := runes[i]
	i++
	for i < len(runes) {
		switch {
		case mysql && quote != '`' && runes[i] == '\\':
			i += 2
		case runes[i] == quote && i+1 < len(runes) && runes[i+1] == quote:
			i += 2
		case runes[i] == quote:
			return i + 1
		default:
			i++
		}
	}
	return i
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE/ILIKE pattern matching term as a literal
// substring. PostgreSQL's default escape character is the backslash.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

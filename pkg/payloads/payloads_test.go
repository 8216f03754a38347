package payloads

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorProbes(t *testing.T) {
	probes := ErrorProbes()
	require.NotEmpty(t, probes)
	assert.Equal(t, "'", probes[0].Value)
	for _, p := range probes {
		assert.NotEmpty(t, p.Value)
		assert.NotEmpty(t, p.Description)
	}
}

func TestVersionProbesCoverAllBackends(t *testing.T) {
	seen := map[DBMS]bool{}
	for _, p := range VersionProbes() {
		assert.NotEmpty(t, p.Value)
		seen[p.DBMS] = true
	}
	for _, dbms := range []DBMS{DBMSMySQL, DBMSPostgreSQL, DBMSMSSQL, DBMSOracle, DBMSSQLite} {
		assert.True(t, seen[dbms], "missing version probe for %s", dbms)
	}
}

func TestBooleanPairs(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	pairs := BooleanPairs(rnd)
	require.Len(t, pairs, 6)

	for _, pair := range pairs {
		assert.NotEqual(t, pair.True, pair.False)
		assert.True(t, strings.HasSuffix(pair.True, "-- -"))
		assert.True(t, strings.HasSuffix(pair.False, "-- -"))

		// The truthy payload compares a number to itself.
		idx := strings.Index(pair.True, "AND ")
		require.GreaterOrEqual(t, idx, 0)
		var a, b int
		_, err := fmt.Sscanf(pair.True[idx+4:], "%d=%d", &a, &b)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.GreaterOrEqual(t, a, 10)
		assert.LessOrEqual(t, a, 94)
	}
}

func TestBooleanPairsFalseOffByOne(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for _, pair := range BooleanPairs(rnd) {
		idx := strings.Index(pair.False, "AND ")
		require.GreaterOrEqual(t, idx, 0)
		var a, b int
		_, err := fmt.Sscanf(pair.False[idx+4:], "%d=%d", &a, &b)
		require.NoError(t, err)
		assert.Equal(t, a+1, b)
	}
}

func TestUnionProbes(t *testing.T) {
	probes := UnionProbes(3)
	// Two probes per column count: full-marker and NULL-padded.
	require.Len(t, probes, 6)

	full := probes[0]
	assert.Equal(t, 1, full.Columns)
	assert.Contains(t, full.Payload, "SQLi1337M1")
	require.Len(t, full.Markers, 1)

	three := probes[4]
	assert.Equal(t, 3, three.Columns)
	require.Len(t, three.Markers, 3)
	for _, m := range three.Markers {
		assert.Contains(t, three.Payload, m)
	}

	padded := probes[5]
	assert.Equal(t, 3, padded.Columns)
	require.Len(t, padded.Markers, 1)
	assert.Contains(t, padded.Payload, "NULL,NULL,'SQLi1337M3'")
}

func TestUnionProbesClampsColumns(t *testing.T) {
	assert.Len(t, UnionProbes(0), MaxUnionColumns*2)
	assert.Len(t, UnionProbes(100), MaxUnionColumns*2)
}

func TestMarkerColumn(t *testing.T) {
	assert.Equal(t, 1, MarkerColumn("SQLi1337M1"))
	assert.Equal(t, 7, MarkerColumn("SQLi1337M7"))
	assert.Equal(t, 0, MarkerColumn("SQLiVerify0001"))
	assert.Equal(t, 0, MarkerColumn("random"))
}

func TestUnionVerify(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	payload, marker := UnionVerify(2, 4, rnd)

	assert.True(t, strings.HasPrefix(marker, "SQLiVerify"))
	assert.Len(t, marker, len("SQLiVerify")+4)
	assert.Contains(t, payload, "NULL,'"+marker+"',NULL,NULL")

	// A second call must not reuse the marker.
	_, marker2 := UnionVerify(2, 4, rnd)
	assert.NotEqual(t, marker, marker2)
}

func TestUnionVerifyClampsBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	payload, marker := UnionVerify(0, 0, rnd)
	assert.Contains(t, payload, marker)
	assert.NotContains(t, payload, "NULL")
}

func TestTimeProbes(t *testing.T) {
	probes := TimeProbes(5 * time.Second)
	require.NotEmpty(t, probes)
	for _, p := range probes {
		assert.Equal(t, 5*time.Second, p.Sleep)
		assert.NotEmpty(t, p.DBMS)
	}

	var mysql, sqlite bool
	for _, p := range probes {
		if strings.Contains(p.Value, "SLEEP(5)") {
			mysql = true
		}
		if strings.Contains(p.Value, "sqlite_master") {
			sqlite = true
		}
	}
	assert.True(t, mysql)
	assert.True(t, sqlite)
}

func TestTimeProbesDefaultDelay(t *testing.T) {
	for _, p := range TimeProbes(0) {
		assert.Equal(t, 5*time.Second, p.Sleep)
	}
}

func TestMatchError(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  DBMS
		match bool
	}{
		{
			name:  "mysql syntax",
			body:  "You have an error in your SQL syntax; check the manual",
			want:  DBMSMySQL,
			match: true,
		},
		{
			name:  "postgresql",
			body:  `ERROR: syntax error at or near "'" at character 42`,
			want:  DBMSPostgreSQL,
			match: true,
		},
		{
			name:  "mssql unclosed quote",
			body:  "Unclosed quotation mark after the character string ''.",
			want:  DBMSMSSQL,
			match: true,
		},
		{
			name:  "oracle",
			body:  "ORA-01756: quoted string not properly terminated",
			want:  DBMSOracle,
			match: true,
		},
		{
			name:  "sqlite",
			body:  `unrecognized token: "'"`,
			want:  DBMSSQLite,
			match: true,
		},
		{
			name:  "generic jdbc",
			body:  "java.sql.SQLException: bad grammar",
			want:  DBMSGeneric,
			match: true,
		},
		{
			name:  "clean page",
			body:  "<html><body>Welcome to our shop</body></html>",
			match: false,
		},
		{
			name:  "keyword without pattern",
			body:  "Read our SQL tutorial for beginners",
			match: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbms, evidence, ok := MatchError(tt.body)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, dbms)
				assert.NotEmpty(t, evidence)
			}
		})
	}
}

func TestMatchErrorSnippetBounded(t *testing.T) {
	body := strings.Repeat("x", 500) + " ORA-00933: SQL command not properly ended " + strings.Repeat("y", 500)
	_, evidence, ok := MatchError(body)
	require.True(t, ok)
	assert.LessOrEqual(t, len(evidence), 150)
	assert.Contains(t, evidence, "ORA-00933")
}

func TestDetectDBMS(t *testing.T) {
	assert.Equal(t, DBMSMySQL, DetectDBMS("Warning: mysqli_query(): error"))
	assert.Equal(t, DBMSPostgreSQL, DetectDBMS("org.postgresql.util.PSQLException: boom"))
	assert.Equal(t, DBMSGeneric, DetectDBMS("Incorrect syntax near ','."))
	assert.Equal(t, DBMSGeneric, DetectDBMS("nothing here"))
}

func TestSelectorFiltersByDBMS(t *testing.T) {
	s := Selector{DBMS: DBMSPostgreSQL}
	times := s.Times(5 * time.Second)
	require.NotEmpty(t, times)
	for _, p := range times {
		assert.Equal(t, DBMSPostgreSQL, p.DBMS)
	}

	versions := s.Versions()
	require.Len(t, versions, 1)
	assert.Equal(t, DBMSPostgreSQL, versions[0].DBMS)
}

func TestSelectorUnknownBackendKeepsAll(t *testing.T) {
	s := Selector{}
	assert.Len(t, s.Times(5*time.Second), len(TimeProbes(5*time.Second)))
	assert.Len(t, s.Versions(), len(VersionProbes()))
}

func TestSelectorCap(t *testing.T) {
	s := Selector{MaxPerTechnique: 2}
	assert.Len(t, s.Errors(), 2)
	assert.Len(t, s.Times(5*time.Second), 2)
}

func TestCommonParams(t *testing.T) {
	params := CommonParams()
	assert.Contains(t, params, "id")
	assert.Contains(t, params, "q")
	seen := map[string]bool{}
	for _, p := range params {
		assert.False(t, seen[p], "duplicate param %s", p)
		seen[p] = true
	}
}

func TestRemediation(t *testing.T) {
	assert.Contains(t, Remediation(), "parameterized queries")
}

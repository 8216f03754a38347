package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/scanner"
)

var _ scanner.Hook = (*Hook)(nil)

func memoryHook() (*Hook, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return newWithProvider(provider), exporter
}

func TestScanLifecycleSpan(t *testing.T) {
	h, exporter := memoryHook()

	h.ScanStarted("scan-1", "http://example.com/?id=1")
	h.FindingReported(finding.New(finding.TypeError, "http://example.com/?id=1", "id", "'", finding.High))
	h.ScanFinished(&finding.ScanResult{
		ScanID:       "scan-1",
		Target:       "http://example.com/?id=1",
		TestedParams: 1,
		Requests:     42,
		Duration:     3 * time.Second,
		Findings:     []finding.Finding{{Type: finding.TypeError}},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "sqlscout.scan", span.Name)
	assert.Equal(t, codes.Error, span.Status.Code)

	names := make([]string, 0, len(span.Events))
	for _, e := range span.Events {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"scan_started", "finding_confirmed", "scan_completed"}, names)
}

func TestCleanScanStatusOk(t *testing.T) {
	h, exporter := memoryHook()

	h.ScanStarted("scan-2", "http://example.com/")
	h.ScanFinished(&finding.ScanResult{ScanID: "scan-2"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestEventsWithoutSpanAreDropped(t *testing.T) {
	h, exporter := memoryHook()

	h.FindingReported(finding.Finding{Type: finding.TypeUnion})
	h.ScanFinished(&finding.ScanResult{})

	assert.Empty(t, exporter.GetSpans())
}

func TestCloseEndsOpenSpan(t *testing.T) {
	h, exporter := memoryHook()

	h.ScanStarted("scan-3", "http://example.com/")
	require.NoError(t, h.Close())
	assert.Len(t, exporter.GetSpans(), 1)
}

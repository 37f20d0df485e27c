package pdf

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/gogotex/pdfstore/internal/pdf/pdftest"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidDocument(t *testing.T) {
	doc, err := Load(bytes.NewReader(pdftest.Uniform(3, 100)))
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount())

	size, err := doc.SerializedSize()
	require.NoError(t, err)
	require.Greater(t, size, int64(300))
}

func TestLoad_RejectsGarbage(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("hello world"), []byte("%PDF-1.4\nnot really")} {
		_, err := Load(bytes.NewReader(in))
		require.True(t, errors.Is(err, document.ErrInvalidDocument), "input %q", in)
	}
}

func TestExtract_RoundTripPreservesPages(t *testing.T) {
	src := pdftest.Uniform(7, 200)
	doc, err := Load(bytes.NewReader(src))
	require.NoError(t, err)

	plan, err := PlanSegments(7, 1, Budget{Bytes: 3, Margin: 1})
	require.NoError(t, err)
	require.Equal(t, []Range{{0, 3}, {3, 6}, {6, 7}}, plan.Ranges)

	segs, err := (&Builder{}).Build(context.Background(), doc, plan)
	require.NoError(t, err)
	require.Len(t, segs, 3)

	total := 0
	for _, s := range segs {
		part, err := Load(bytes.NewReader(s.Data))
		require.NoError(t, err)
		require.Equal(t, s.Range.Pages(), part.PageCount())
		total += part.PageCount()

		for p := 1; p <= 7; p++ {
			inRange := p >= s.Range.FirstPage() && p <= s.Range.LastPage()
			require.Equal(t, inRange, bytes.Contains(s.Data, []byte(pdftest.Marker(p))),
				"page %d in segment %s", p, s.Range)
		}
	}
	require.Equal(t, 7, total)
}

func TestExtract_RangeOutsideDocument(t *testing.T) {
	doc, err := Load(bytes.NewReader(pdftest.Uniform(2, 10)))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.Error(t, doc.Extract(Range{1, 3}, &buf))
	require.Error(t, doc.Extract(Range{1, 1}, &buf))
}

func TestPlanFromRealDocument_TwentyFivePages(t *testing.T) {
	doc, err := Load(bytes.NewReader(pdftest.Uniform(25, 510_000)))
	require.NoError(t, err)

	avg, err := EstimatePageSize(doc)
	require.NoError(t, err)
	plan, err := PlanSegments(doc.PageCount(), avg, DefaultBudget())
	require.NoError(t, err)
	require.Equal(t, []Range{{0, 17}, {17, 25}}, plan.Ranges)

	segs, err := (&Builder{Limit: DefaultBudgetBytes, Adaptive: true}).Build(context.Background(), doc, plan)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	for _, s := range segs {
		require.LessOrEqual(t, s.Size(), DefaultBudgetBytes)
	}
}

package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/stretchr/testify/require"
)

// sizedSource builds segments whose size is the sum of their page sizes.
type sizedSource struct {
	sizes   []int
	calls   []Range
	failAt  int
	failErr error
}

func (s *sizedSource) PageCount() int { return len(s.sizes) }

func (s *sizedSource) Extract(r Range, w io.Writer) error {
	s.calls = append(s.calls, r)
	if s.failErr != nil && r.Start <= s.failAt && s.failAt < r.End {
		return s.failErr
	}
	n := 0
	for _, sz := range s.sizes[r.Start:r.End] {
		n += sz
	}
	_, err := w.Write(bytes.Repeat([]byte{'p'}, n))
	return err
}

func uniformSizes(n, size int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = size
	}
	return out
}

func TestBuilder_NonAdaptiveKeepsPlannedRanges(t *testing.T) {
	src := &sizedSource{sizes: []int{100, 100, 900, 100, 100}}
	plan := Plan{Ranges: []Range{{0, 3}, {3, 5}}}
	b := &Builder{Limit: 500}

	segs, err := b.Build(context.Background(), src, plan)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	require.Equal(t, Range{0, 3}, segs[0].Range)
	require.Equal(t, int64(1100), segs[0].Size())
	require.Equal(t, Range{3, 5}, segs[1].Range)
}

func TestBuilder_AdaptiveShrinksUntilUnderLimit(t *testing.T) {
	src := &sizedSource{sizes: []int{100, 100, 900, 100, 100}}
	plan := Plan{Ranges: []Range{{0, 3}, {3, 5}}}
	b := &Builder{Limit: 500, Adaptive: true}

	segs, err := b.Build(context.Background(), src, plan)
	require.NoError(t, err)

	var got []Range
	for _, s := range segs {
		got = append(got, s.Range)
	}
	require.Equal(t, []Range{{0, 2}, {2, 3}, {3, 5}}, got)
	require.True(t, segs[1].OverBudget(b.Limit), "a single oversized page is still emitted")
	require.False(t, segs[0].OverBudget(b.Limit))
	require.False(t, segs[2].OverBudget(b.Limit))
}

func TestBuilder_AdaptiveBoundsEveryMultiPageSegment(t *testing.T) {
	sizes := []int{50, 400, 30, 30, 300, 300, 10, 700, 20, 20, 20, 480}
	plan, err := PlanSegments(len(sizes), 40, Budget{Bytes: 1000, Margin: 0.9})
	require.NoError(t, err)

	b := &Builder{Limit: 500, Adaptive: true}
	segs, err := b.Build(context.Background(), &sizedSource{sizes: sizes}, plan)
	require.NoError(t, err)

	next := 0
	for _, s := range segs {
		require.Equal(t, next, s.Range.Start)
		next = s.Range.End
		if s.Range.Pages() > 1 {
			require.LessOrEqual(t, s.Size(), b.Limit, "segment %s", s.Range)
		}
	}
	require.Equal(t, len(sizes), next)
}

func TestBuilder_ExtractErrorIsBuildError(t *testing.T) {
	src := &sizedSource{sizes: uniformSizes(6, 10), failAt: 4, failErr: errors.New("broken xref")}
	plan := Plan{Ranges: []Range{{0, 3}, {3, 6}}}

	_, err := (&Builder{}).Build(context.Background(), src, plan)
	require.True(t, errors.Is(err, document.ErrBuild))
	require.Contains(t, err.Error(), "4-6")
}

func TestBuilder_RejectsPlanNotCoveringDocument(t *testing.T) {
	src := &sizedSource{sizes: uniformSizes(5, 10)}
	for _, ranges := range [][]Range{
		{{0, 2}, {3, 5}},
		{{0, 2}, {2, 4}},
		{{0, 3}, {2, 5}},
		nil,
	} {
		_, err := (&Builder{}).Build(context.Background(), src, Plan{Ranges: ranges})
		require.True(t, errors.Is(err, document.ErrPlanning), fmt.Sprint(ranges))
	}
	require.Empty(t, src.calls)
}

func TestBuilder_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Builder{}).Build(ctx, &sizedSource{sizes: uniformSizes(2, 1)}, Plan{Ranges: []Range{{0, 2}}})
	require.ErrorIs(t, err, context.Canceled)
}

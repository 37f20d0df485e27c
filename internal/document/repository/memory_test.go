package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/stretchr/testify/require"
)

func newDoc(title string) *document.Document {
	return &document.Document{
		Title:    title,
		Owner:    "admin-1",
		Segments: []document.SegmentRef{{URL: "https://blob/a.pdf", StoreID: "a", FirstPage: 1, LastPage: 3}},
	}
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d := newDoc("Pump manual")
	require.NoError(t, r.Create(ctx, d))
	require.NotEmpty(t, d.ID)
	require.False(t, d.CreatedAt.IsZero())

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "Pump manual", got.Title)
	require.Len(t, got.Segments, 1)

	title := "Pump manual v2"
	pages := 12
	upd, err := r.Update(ctx, d.ID, document.Patch{Title: &title, PageCount: &pages})
	require.NoError(t, err)
	require.Equal(t, title, upd.Title)
	require.Equal(t, 12, *upd.PageCount)
	require.Len(t, upd.Segments, 1)

	require.NoError(t, r.Delete(ctx, d.ID))
	_, err = r.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, d.ID), ErrNotFound)
}

func TestMemoryRepoCreateRejectsInvalid(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	noTitle := newDoc("")
	require.ErrorIs(t, r.Create(ctx, noTitle), document.ErrDuplicateOrInvalid)

	noOwner := newDoc("x")
	noOwner.Owner = ""
	require.ErrorIs(t, r.Create(ctx, noOwner), document.ErrDuplicateOrInvalid)

	noSegments := newDoc("x")
	noSegments.Segments = nil
	require.ErrorIs(t, r.Create(ctx, noSegments), document.ErrDuplicateOrInvalid)

	d := newDoc("dup")
	d.ID = "fixed"
	require.NoError(t, r.Create(ctx, d))
	again := newDoc("dup")
	again.ID = "fixed"
	require.ErrorIs(t, r.Create(ctx, again), document.ErrDuplicateOrInvalid)
}

func TestMemoryRepoListNewestFirstAndSearch(t *testing.T) {
	r := NewMemoryRepo().WithClock(steppingClock())
	ctx := context.Background()
	for _, title := range []string{"Boiler Specs", "Valve handbook", "boiler maintenance"} {
		require.NoError(t, r.Create(ctx, newDoc(title)))
	}

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "boiler maintenance", all[0].Title)
	require.Equal(t, "Boiler Specs", all[2].Title)

	hits, err := r.List(ctx, "BOILER")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "boiler maintenance", hits[0].Title)

	none, err := r.List(ctx, "turbine")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMemoryRepoUpdateMissingAndInvalid(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	title := "t"
	_, err := r.Update(ctx, "nope", document.Patch{Title: &title})
	require.True(t, errors.Is(err, ErrNotFound))

	d := newDoc("keep")
	require.NoError(t, r.Create(ctx, d))
	empty := ""
	_, err = r.Update(ctx, d.ID, document.Patch{Title: &empty})
	require.ErrorIs(t, err, document.ErrDuplicateOrInvalid)
	blank := "   "
	_, err = r.Update(ctx, d.ID, document.Patch{Title: &blank})
	require.ErrorIs(t, err, document.ErrDuplicateOrInvalid)
	neg := -1
	_, err = r.Update(ctx, d.ID, document.Patch{PageCount: &neg})
	require.ErrorIs(t, err, document.ErrDuplicateOrInvalid)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d := newDoc("copy")
	require.NoError(t, r.Create(ctx, d))

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Segments[0].URL = "mutated"

	again, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "copy", again.Title)
	require.Equal(t, "https://blob/a.pdf", again.Segments[0].URL)
}

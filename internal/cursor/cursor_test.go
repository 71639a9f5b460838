package cursor_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/cursor"
	"github.com/nicolagi/memo/internal/epoch"
	"github.com/stretchr/testify/require"
)

type sliceStream struct {
	entries []epoch.BaseEntry
	i       int
}

func (s *sliceStream) Next() (epoch.BaseEntry, bool, error) {
	if s.i >= len(s.entries) {
		return epoch.BaseEntry{}, false, nil
	}
	e := s.entries[s.i]
	s.i++
	return e, true, nil
}

func newFixture(t *testing.T) *epoch.Epoch {
	t.Helper()
	replica, err := clock.NewReplicaID()
	require.NoError(t, err)
	lamport := clock.NewLamport(replica)
	local := clock.NewLocal(replica)
	e := epoch.New(1, &lamport, &local)
	stream := &sliceStream{entries: []epoch.BaseEntry{
		{Depth: 0, Name: "docs", Type: epoch.Directory},
		{Depth: 1, Name: "readme.txt", Type: epoch.Text},
		{Depth: 1, Name: "guide.txt", Type: epoch.Text},
		{Depth: 0, Name: "src", Type: epoch.Directory},
		{Depth: 1, Name: "main.go", Type: epoch.Text},
	}}
	require.NoError(t, e.AppendBaseEntries(stream))
	return e
}

func TestNextDescendVisitsEveryEntryInPreOrder(t *testing.T) {
	e := newFixture(t)
	c := cursor.New(e)

	var names []string
	for {
		ok, err := c.Next(true)
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, c.Item().Name)
	}
	require.Equal(t, []string{"docs", "guide.txt", "readme.txt", "src", "main.go"}, names)
}

func TestNextSiblingSkipsSubtree(t *testing.T) {
	e := newFixture(t)
	c := cursor.New(e)

	ok, err := c.Next(true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "docs", c.Item().Name)
	require.Equal(t, epoch.Directory, c.Item().Type)

	ok, err = c.NextSibling()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "src", c.Item().Name)
	require.Equal(t, 1, c.Item().Depth)
}

func TestNextWithoutDescendNeverEntersDirectory(t *testing.T) {
	e := newFixture(t)
	c := cursor.New(e)

	var names []string
	for {
		ok, err := c.Next(false)
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, c.Item().Name)
	}
	require.Equal(t, []string{"docs", "src"}, names)
}

// listingEntry is cursor.Entry stripped of its FileID, which carries
// unexported fields cmp.Diff cannot see into: a golden-state comparison
// only needs the part of an Entry that's stable across runs anyway.
type listingEntry struct {
	Depth  int
	Name   string
	Type   epoch.FileType
	Status cursor.Status
}

func TestFullTraversalMatchesGoldenListing(t *testing.T) {
	e := newFixture(t)
	c := cursor.New(e)

	var got []listingEntry
	for {
		ok, err := c.Next(true)
		require.NoError(t, err)
		if !ok {
			break
		}
		item := c.Item()
		got = append(got, listingEntry{Depth: item.Depth, Name: item.Name, Type: item.Type, Status: item.Status})
	}

	want := []listingEntry{
		{Depth: 1, Name: "docs", Type: epoch.Directory, Status: cursor.Visible},
		{Depth: 2, Name: "guide.txt", Type: epoch.Text, Status: cursor.Visible},
		{Depth: 2, Name: "readme.txt", Type: epoch.Text, Status: cursor.Visible},
		{Depth: 1, Name: "src", Type: epoch.Directory, Status: cursor.Visible},
		{Depth: 2, Name: "main.go", Type: epoch.Text, Status: cursor.Visible},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("traversal mismatch (-want +got):\n%s", diff)
	}
}

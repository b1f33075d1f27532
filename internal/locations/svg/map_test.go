package svg

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapProducesSVG(t *testing.T) {
	slots := []Slot{
		{ID: 1, Code: "01-A-1", Aisle: 1, Rack: 0, Level: 1, Occupied: true, Products: 2},
		{ID: 2, Code: "01-F-1", Aisle: 1, Right: true, Rack: 0, Level: 1},
	}
	html, err := Map(2, 5, 5, slots, MapOpts{
		Title:     "Warehouse <main>",
		Link:      func(id int64) string { return fmt.Sprintf("/locations/%d", id) },
		Highlight: map[string]bool{"01-F-1": true},
	})
	require.NoError(t, err)
	out := string(html)
	require.True(t, strings.HasPrefix(out, "<svg"))
	require.Equal(t, 2, strings.Count(out, "<rect"))
	require.Contains(t, out, `href="/locations/1"`)
	require.Contains(t, out, "01-A-1 (2)")
	require.Contains(t, out, "#f97316")
	require.Contains(t, out, `stroke="#0ea5e9"`)
	require.Contains(t, out, "Warehouse &lt;main&gt;")
}

func TestMapSkipsOutOfRangeSlots(t *testing.T) {
	html, err := Map(1, 5, 5, []Slot{{Code: "02-A-1", Aisle: 2, Level: 1}}, MapOpts{})
	require.NoError(t, err)
	require.NotContains(t, string(html), "<rect")
}

func TestMapRejectsEmptyGeometry(t *testing.T) {
	_, err := Map(0, 5, 5, nil, MapOpts{})
	require.Error(t, err)
}

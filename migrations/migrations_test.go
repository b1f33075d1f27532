package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamesSorted(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	require.Equal(t, "0001_init.sql", names[0])
}

func TestInitDeclaresLedgerConstraints(t *testing.T) {
	body, err := files.ReadFile("0001_init.sql")
	require.NoError(t, err)
	sql := string(body)
	for _, fragment := range []string{
		"UNIQUE (product_id, location_id)",
		"CHECK (quantity > 0)",
		"UNIQUE (code)",
		"UNIQUE (aisle, side, letter, level)",
		"products_barcode_lower_key",
		"products_qr_code_lower_key",
	} {
		require.True(t, strings.Contains(sql, fragment), fragment)
	}
}

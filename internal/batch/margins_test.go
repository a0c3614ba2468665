package batch

import (
	"image/color"
	"testing"

	"github.com/electora/rollscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMargins_Zero(t *testing.T) {
	sheet := testutil.CreateTestImage(100, 80, color.White)

	out, err := ApplyMargins(sheet, Margins{})
	require.NoError(t, err)
	assert.Same(t, sheet, out)
}

func TestApplyMargins_TrimsEdges(t *testing.T) {
	sheet := testutil.CreateTestImage(100, 80, color.White)

	out, err := ApplyMargins(sheet, Margins{Top: 10, Bottom: 10, Left: 5, Right: 15})
	require.NoError(t, err)
	assert.Equal(t, 80, out.Bounds().Dx())
	assert.Equal(t, 60, out.Bounds().Dy())
}

func TestApplyMargins_Negative(t *testing.T) {
	sheet := testutil.CreateTestImage(100, 80, color.White)

	_, err := ApplyMargins(sheet, Margins{Left: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative margins")
}

func TestApplyMargins_ConsumesWholeSheet(t *testing.T) {
	sheet := testutil.CreateTestImage(100, 80, color.White)

	_, err := ApplyMargins(sheet, Margins{Top: 40, Bottom: 40})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leave no sheet area")
}

func TestApplyMargins_NilSheet(t *testing.T) {
	_, err := ApplyMargins(nil, Margins{Top: 1})
	require.Error(t, err)
}

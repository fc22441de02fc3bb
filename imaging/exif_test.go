package imaging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intermodalis/transitcore/imaging"
)

func TestExtractExifReturnsNilForDataWithoutExif(t *testing.T) {
	out, err := imaging.ExtractExif([]byte("not an image at all"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

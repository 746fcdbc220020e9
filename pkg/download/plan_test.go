package download_test

import (
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orca-models/orca/pkg/download"
)

type span struct {
	offset int64
	size   int64
}

func spans(parts []*download.Part) []span {
	output := make([]span, len(parts))
	for i, part := range parts {
		output[i] = span{offset: part.Offset, size: part.Size}
	}
	return output
}

func TestPlanParts(t *testing.T) {
	testCases := []struct {
		name      string
		totalSize int64
		expected  []span
	}{
		{
			name:      "smaller than minimum part size",
			totalSize: 10 * humanize.MiByte,
			expected:  []span{{0, 10 * humanize.MiByte}},
		},
		{
			name:      "exactly minimum part size",
			totalSize: 100 * humanize.MiByte,
			expected:  []span{{0, 100 * humanize.MiByte}},
		},
		{
			name:      "mid-size file clamps up to minimum",
			totalSize: 700 * humanize.MiByte,
			expected: []span{
				{0, 100 * humanize.MiByte},
				{100 * humanize.MiByte, 100 * humanize.MiByte},
				{200 * humanize.MiByte, 100 * humanize.MiByte},
				{300 * humanize.MiByte, 100 * humanize.MiByte},
				{400 * humanize.MiByte, 100 * humanize.MiByte},
				{500 * humanize.MiByte, 100 * humanize.MiByte},
				{600 * humanize.MiByte, 100 * humanize.MiByte},
			},
		},
		{
			name:      "uneven remainder",
			totalSize: 250 * humanize.MiByte,
			expected: []span{
				{0, 100 * humanize.MiByte},
				{100 * humanize.MiByte, 100 * humanize.MiByte},
				{200 * humanize.MiByte, 50 * humanize.MiByte},
			},
		},
		{
			name:      "large file within bounds",
			totalSize: 1_600_000_000,
			expected: []span{
				{0, 200_000_000},
				{200_000_000, 200_000_000},
				{400_000_000, 200_000_000},
				{600_000_000, 200_000_000},
				{800_000_000, 200_000_000},
				{1_000_000_000, 200_000_000},
				{1_200_000_000, 200_000_000},
				{1_400_000_000, 200_000_000},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parts, err := download.PlanParts(tc.totalSize, download.DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, spans(parts))
			for i, part := range parts {
				assert.Equal(t, i, part.Index)
				assert.Zero(t, part.BytesWritten())
			}
		})
	}
}

func TestPlanPartsClampsToMaximum(t *testing.T) {
	totalSize := int64(20 * humanize.GiByte)
	parts, err := download.PlanParts(totalSize, download.DefaultConfig())
	require.NoError(t, err)

	// 20 GiB / 8 is above the 1000 MiB ceiling, so the part count grows past the target
	assert.Len(t, parts, 21)
	for _, part := range parts[:len(parts)-1] {
		assert.Equal(t, int64(1000*humanize.MiByte), part.Size)
	}
	assert.Equal(t, totalSize-20*1000*humanize.MiByte, parts[len(parts)-1].Size)
}

func TestPlanPartsCoversFile(t *testing.T) {
	cfg := download.Config{NumPartsTarget: 8, MinPartSize: 7, MaxPartSize: 50}
	for totalSize := int64(1); totalSize <= 2000; totalSize++ {
		parts, err := download.PlanParts(totalSize, cfg)
		require.NoError(t, err)
		require.NotEmpty(t, parts)

		next := int64(0)
		sum := int64(0)
		for i, part := range parts {
			require.Equal(t, next, part.Offset, "gap or overlap at part %d for size %d", i, totalSize)
			require.Positive(t, part.Size)
			next = part.Offset + part.Size
			sum += part.Size
		}
		require.Equal(t, totalSize, sum)
		require.Equal(t, totalSize-1, parts[len(parts)-1].End())

		if totalSize >= 2*cfg.MinPartSize {
			for _, part := range parts[:len(parts)-1] {
				require.GreaterOrEqual(t, part.Size, cfg.MinPartSize)
				require.LessOrEqual(t, part.Size, cfg.MaxPartSize)
			}
		}
	}
}

func TestPlanPartsIsDeterministic(t *testing.T) {
	cfg := download.Config{NumPartsTarget: 5, MinPartSize: 3 * humanize.KiByte, MaxPartSize: 40 * humanize.KiByte}
	for _, totalSize := range []int64{1, 4097, 123_457, 9_999_999} {
		first, err := download.PlanParts(totalSize, cfg)
		require.NoError(t, err)
		second, err := download.PlanParts(totalSize, cfg)
		require.NoError(t, err)
		assert.Equal(t, spans(first), spans(second))
	}
}

func TestPlanPartsRejectsEmptyFile(t *testing.T) {
	_, err := download.PlanParts(0, download.DefaultConfig())
	assert.Error(t, err)
	_, err = download.PlanParts(-1, download.DefaultConfig())
	assert.Error(t, err)
}

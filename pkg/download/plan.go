package download

import "fmt"

// PlanParts splits [0, totalSize) into contiguous parts. The part size is totalSize/NumPartsTarget clamped to
// [MinPartSize, MaxPartSize]; the last part takes whatever remains, so the number of parts may differ from the target.
// The result depends only on its inputs.
func PlanParts(totalSize int64, cfg Config) ([]*Part, error) {
	if totalSize <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidTotalSize, totalSize)
	}
	cfg = cfg.withDefaults()

	partSize := totalSize / int64(cfg.NumPartsTarget)
	if partSize < cfg.MinPartSize {
		partSize = cfg.MinPartSize
	} else if partSize > cfg.MaxPartSize {
		partSize = cfg.MaxPartSize
	}

	parts := make([]*Part, 0, (totalSize+partSize-1)/partSize)
	for offset := int64(0); offset < totalSize; offset += partSize {
		size := min(partSize, totalSize-offset)
		parts = append(parts, newPart(len(parts), offset, size))
	}
	return parts, nil
}

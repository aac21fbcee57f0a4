package anvil

import (
	"fmt"
	"path/filepath"
)

// RegionFilePath returns the path of the region file for region
// (rx, rz) under a world folder.
func RegionFilePath(worldDir string, rx, rz int) string {
	return filepath.Join(worldDir, "region", fmt.Sprintf("r.%d.%d.mca", rx, rz))
}

// RegionPosOf returns the region coordinates containing the given block
// position. A region covers 512x512 blocks; the shift is a floor division,
// so negative coordinates land in the correct region.
func RegionPosOf(blockX, blockZ int) (rx, rz int) {
	return blockX >> 9, blockZ >> 9
}

// RegionFileForBlock returns the path of the region file containing the
// given block position.
func RegionFileForBlock(worldDir string, blockX, blockZ int) string {
	rx, rz := RegionPosOf(blockX, blockZ)
	return RegionFilePath(worldDir, rx, rz)
}

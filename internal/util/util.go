// Package util provides common utility functions.
package util

//go:generate go tool errtrace -w .

// Align rounds n up to the next multiple of blk.
func Align(n, blk int) int {
	if blk <= 0 {
		return n
	}
	return blk * ((n + blk - 1) / blk)
}

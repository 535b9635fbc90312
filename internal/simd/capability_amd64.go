//go:build amd64

package simd

import "github.com/klauspost/cpuid/v2"

func init() {
	if cpuid.CPU.Supports(cpuid.AVX2) {
		squaredL2Impl = squaredL2Wide8
		dotImpl = dotWide8
	} else {
		squaredL2Impl = squaredL2Wide4
		dotImpl = dotWide4
	}
}

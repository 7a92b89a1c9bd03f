// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/reduce"
)

//go:embed shaders/reduce_local.wgsl
var reduceLocalShaderSource string

//go:embed shaders/reduce_global.wgsl
var reduceGlobalShaderSource string

// wgSizeDecl is the workgroup size declaration shared by both shaders.
const wgSizeDecl = "const WG_SIZE: u32 = 256u;"

// shaderSource returns the WGSL for strategy s with the workgroup size set
// to groupSize.
func shaderSource(s reduce.Strategy, groupSize int) (string, error) {
	if groupSize <= 0 || groupSize > MaxGroupSize {
		return "", fmt.Errorf("gpu-reduce: group size %d outside 1..%d", groupSize, MaxGroupSize)
	}

	var src string
	switch s {
	case reduce.StrategyLocal:
		src = reduceLocalShaderSource
	case reduce.StrategyGlobal:
		src = reduceGlobalShaderSource
	default:
		return "", fmt.Errorf("gpu-reduce: no shader for strategy %v", s)
	}

	if !strings.Contains(src, wgSizeDecl) {
		return "", fmt.Errorf("gpu-reduce: %v shader lacks WG_SIZE declaration", s)
	}
	return strings.Replace(src, wgSizeDecl, fmt.Sprintf("const WG_SIZE: u32 = %du;", groupSize), 1), nil
}

//go:build !nogpu

package main

import _ "github.com/gogpu/reduce/gpu" // enable GPU reductions

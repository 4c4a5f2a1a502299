//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// IntuitionStudio reinterprets []float32 as raw bytes when filling device
// buffers, which assumes little-endian byte order.
var _ = "IntuitionStudio requires a little-endian architecture" + 1

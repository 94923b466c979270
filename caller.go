package labeltest

import (
	"runtime"
	"strings"
)

// callerPackage returns the import path of the function skip frames above the caller of callerPackage.
func callerPackage(skip int) string {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+2, pcs) == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	return packageOf(frame.Function)
}

// packageOf returns the import path in a qualified function name
// such as example.com/project/storage_test.TestFoo.func1.
// External test packages report the package they test.
func packageOf(fn string) string {
	slash := strings.LastIndexByte(fn, '/')
	dot := strings.IndexByte(fn[slash+1:], '.')
	if dot < 0 {
		return ""
	}
	pkg := fn[:slash+1+dot]
	// The linker escapes dots in the last path element.
	pkg = strings.ReplaceAll(pkg, "%2e", ".")
	return strings.TrimSuffix(pkg, "_test")
}

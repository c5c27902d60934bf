//go:build mujoco

package mujocoenv

// #include <stdlib.h>
// #include "mujoco/mujoco.h"
import "C"

import (
	"fmt"
	"math"
	"unsafe"
)

// loadXML loads a model from an XML scene description and allocates
// its data
func loadXML(file string) (*C.mjModel, *C.mjData, error) {
	modelName := C.CString(file)
	defer C.free(unsafe.Pointer(modelName))

	var err [1000]C.char
	model := C.mj_loadXML(modelName, nil, &err[0], C.int(len(err)))
	goErr := C.GoString(&err[0])
	if model == nil {
		return nil, nil, fmt.Errorf("could not construct model: %v", goErr)
	}

	data := C.mj_makeData(model)
	if data == nil {
		C.mj_deleteModel(model)
		return nil, nil, fmt.Errorf("could not construct mjData")
	}
	return model, data, nil
}

// f64Slice views a C array of n doubles as a Go slice. The slice
// aliases C memory and must not outlive the model or data owning it.
func f64Slice(array *C.mjtNum, n int) []float64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(array)), n)
}

// intSlice views a C array of n ints as a Go slice
func intSlice(array *C.int, n int) []int32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(array)), n)
}

// finite returns whether all elements of v are finite
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

package bclone

import "github.com/unixpickle/anyvec"

// VecToFloats converts a vector of either precision to
// a slice of float64 values.
func VecToFloats(vec anyvec.Vector) []float64 {
	var res []float64
	switch data := vec.Data().(type) {
	case []float64:
		res = data
	case []float32:
		for _, x := range data {
			res = append(res, float64(x))
		}
	default:
		panic("unsupported numeric type")
	}
	return res
}

func floatsToVec(c anyvec.Creator, data []float64) anyvec.Vector {
	return c.MakeVectorData(c.MakeNumericList(data))
}

// scalarValue reads the single component of a scalar
// vector, such as the output of a loss.
func scalarValue(vec anyvec.Vector) float64 {
	return VecToFloats(vec)[0]
}

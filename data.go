package bclone

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sbinet/npyio/npz"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
)

// Names of the arrays in a trajectory archive.
const (
	ObsKey    = "obs"
	ActsKey   = "acts"
	GoalsKey  = "desired_goals"
	EpLensKey = "ep_lens"
)

// TrainFrac is the fraction of flattened timesteps that
// are used for training.
// The rest are used for validation.
const TrainFrac = 0.8

// A Split stores flattened demonstration data, divided
// into a training and a validation partition.
//
// Each row of an observation table corresponds to the
// row with the same index in the action table.
//
// The split is computed over timesteps, not episodes, so
// the first validation rows may come from the tail of a
// training episode.
type Split struct {
	TrainObs  *mat.Dense
	TrainActs *mat.Dense
	ValidObs  *mat.Dense
	ValidActs *mat.Dense
}

// ObsDim returns the width of an observation row.
func (s *Split) ObsDim() int {
	_, c := s.TrainObs.Dims()
	return c
}

// ActDim returns the width of an action row.
func (s *Split) ActDim() int {
	_, c := s.TrainActs.Dims()
	return c
}

// LoadData reads a trajectory archive and splits it into
// training and validation tables.
//
// The archive is an .npz file with the arrays "obs" and
// "acts", plus "desired_goals" if goalBased is set.
// Arrays are either 3-D (episode, timestep, component),
// or 2-D (timestep, component) with an optional 1-D
// "ep_lens" array listing the length of each episode.
//
// If goalBased is true, each observation is followed by
// its desired goal.
//
// If the file does not exist, the returned error
// satisfies os.IsNotExist.
func LoadData(path string, goalBased bool) (*Split, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	r, err := npz.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("load data", err)
	}
	defer r.Close()

	obs, err := readEpisodes(r, ObsKey)
	if err != nil {
		return nil, essentials.AddCtx("load data", err)
	}
	acts, err := readEpisodes(r, ActsKey)
	if err != nil {
		return nil, essentials.AddCtx("load data", err)
	}
	if err := acts.checkMatch(obs); err != nil {
		return nil, essentials.AddCtx("load data", err)
	}
	obsTable := obs.Table
	if goalBased {
		goals, err := readEpisodes(r, GoalsKey)
		if err != nil {
			return nil, essentials.AddCtx("load data", err)
		}
		if err := goals.checkMatch(obs); err != nil {
			return nil, essentials.AddCtx("load data", err)
		}
		var joined mat.Dense
		joined.Augment(obs.Table, goals.Table)
		obsTable = &joined
	}

	split, err := splitTables(obsTable, acts.Table)
	return split, essentials.AddCtx("load data", err)
}

func splitTables(obs, acts *mat.Dense) (*Split, error) {
	rows, obsCols := obs.Dims()
	_, actCols := acts.Dims()
	trainLen := int(TrainFrac * float64(rows))
	if trainLen == 0 {
		return nil, fmt.Errorf("too few timesteps to split: %d", rows)
	}
	return &Split{
		TrainObs:  obs.Slice(0, trainLen, 0, obsCols).(*mat.Dense),
		TrainActs: acts.Slice(0, trainLen, 0, actCols).(*mat.Dense),
		ValidObs:  obs.Slice(trainLen, rows, 0, obsCols).(*mat.Dense),
		ValidActs: acts.Slice(trainLen, rows, 0, actCols).(*mat.Dense),
	}, nil
}

// episodes is a flattened array from an archive.
type episodes struct {
	Name   string
	Table  *mat.Dense
	EpLens []int
}

func (e *episodes) checkMatch(other *episodes) error {
	rows, _ := e.Table.Dims()
	otherRows, _ := other.Table.Dims()
	if rows != otherRows {
		return fmt.Errorf("shape mismatch: %s has %d timesteps but %s has %d",
			e.Name, rows, other.Name, otherRows)
	}
	if len(e.EpLens) != len(other.EpLens) {
		return fmt.Errorf("shape mismatch: %s has %d episodes but %s has %d",
			e.Name, len(e.EpLens), other.Name, len(other.EpLens))
	}
	for i, l := range e.EpLens {
		if other.EpLens[i] != l {
			return fmt.Errorf("shape mismatch: episode %d has length %d in %s "+
				"but %d in %s", i, l, e.Name, other.EpLens[i], other.Name)
		}
	}
	return nil
}

func readEpisodes(r *npz.Reader, name string) (*episodes, error) {
	shape, data, err := readArray(r, name)
	if err != nil {
		return nil, err
	}
	res := &episodes{Name: name}
	switch len(shape) {
	case 3:
		numEps, epLen, dim := shape[0], shape[1], shape[2]
		if numEps == 0 || epLen == 0 || dim == 0 {
			return nil, fmt.Errorf("array %s has empty shape %v", name, shape)
		}
		for i := 0; i < numEps; i++ {
			res.EpLens = append(res.EpLens, epLen)
		}
		// Row-major data is already concatenated along the
		// timestep axis.
		res.Table = mat.NewDense(numEps*epLen, dim, data)
	case 2:
		rows, dim := shape[0], shape[1]
		if rows == 0 || dim == 0 {
			return nil, fmt.Errorf("array %s has empty shape %v", name, shape)
		}
		res.Table = mat.NewDense(rows, dim, data)
		res.EpLens, err = readEpLens(r, rows)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("array %s has unsupported shape %v", name, shape)
	}
	return res, nil
}

func readEpLens(r *npz.Reader, rows int) ([]int, error) {
	if findKey(r, EpLensKey) == "" {
		return []int{rows}, nil
	}
	_, data, err := readArray(r, EpLensKey)
	if err != nil {
		return nil, err
	}
	var res []int
	var total int
	for i, x := range data {
		l := int(x)
		if l <= 0 {
			return nil, fmt.Errorf("episode %d is empty", i)
		}
		res = append(res, l)
		total += l
	}
	if total != rows {
		return nil, fmt.Errorf("episode lengths sum to %d, expected %d", total, rows)
	}
	return res, nil
}

// readArray reads an array of any supported numeric type
// as a flat list of float64 values.
func readArray(r *npz.Reader, name string) (shape []int, data []float64, err error) {
	key := findKey(r, name)
	if key == "" {
		return nil, nil, errors.New("missing array: " + name)
	}
	header := r.Header(key)
	shape = append([]int{}, header.Descr.Shape...)

	dtype := header.Descr.Type
	switch {
	case strings.HasSuffix(dtype, "f8"):
		err = r.Read(key, &data)
	case strings.HasSuffix(dtype, "f4"):
		var raw []float32
		err = r.Read(key, &raw)
		for _, x := range raw {
			data = append(data, float64(x))
		}
	case strings.HasSuffix(dtype, "i8"):
		var raw []int64
		err = r.Read(key, &raw)
		for _, x := range raw {
			data = append(data, float64(x))
		}
	case strings.HasSuffix(dtype, "i4"):
		var raw []int32
		err = r.Read(key, &raw)
		for _, x := range raw {
			data = append(data, float64(x))
		}
	default:
		return nil, nil, fmt.Errorf("array %s has unsupported type %s", name, dtype)
	}
	if err != nil {
		return nil, nil, essentials.AddCtx("read "+name, err)
	}

	size := 1
	for _, x := range shape {
		size *= x
	}
	if size != len(data) {
		return nil, nil, fmt.Errorf("array %s has %d values for shape %v",
			name, len(data), shape)
	}
	if header.Descr.Fortran {
		data = fortranToRowMajor(data, shape)
	}
	return shape, data, nil
}

// fortranToRowMajor reorders the data of a column-major
// array so that the last index varies fastest.
func fortranToRowMajor(data []float64, shape []int) []float64 {
	res := make([]float64, len(data))
	idx := make([]int, len(shape))
	for i := range res {
		offset, stride := 0, 1
		for j, x := range idx {
			offset += x * stride
			stride *= shape[j]
		}
		res[i] = data[offset]
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < shape[j] {
				break
			}
			idx[j] = 0
		}
	}
	return res
}

func findKey(r *npz.Reader, name string) string {
	for _, key := range r.Keys() {
		if key == name || key == name+".npy" {
			return key
		}
	}
	return ""
}

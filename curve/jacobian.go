package curve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CurveBlock names one curve's span of market quotes inside a calibration
// jacobian.
type CurveBlock struct {
	Name           string
	ParameterCount int
}

// CalibrationJacobian converts sensitivities to a curve's parameters into
// sensitivities to the market quotes the curve group was calibrated to. It
// holds the inverse of the quote-by-parameter derivative matrix: entry (i, j)
// is the derivative of parameter i with respect to quote j. Rows correspond
// to the parameters of the curve the jacobian is attached to; columns run
// over the quote blocks listed in Blocks.
type CalibrationJacobian struct {
	blocks []CurveBlock
	m      *mat.Dense
}

// NewCalibrationJacobian validates that the block parameter counts cover the
// matrix columns and wraps the matrix.
func NewCalibrationJacobian(blocks []CurveBlock, m *mat.Dense) (*CalibrationJacobian, error) {
	if m == nil {
		return nil, fmt.Errorf("NewCalibrationJacobian: nil matrix")
	}
	total := 0
	for _, b := range blocks {
		if b.ParameterCount <= 0 {
			return nil, fmt.Errorf("NewCalibrationJacobian: block %q has parameter count %d", b.Name, b.ParameterCount)
		}
		total += b.ParameterCount
	}
	_, cols := m.Dims()
	if total != cols {
		return nil, fmt.Errorf("NewCalibrationJacobian: blocks cover %d quotes but matrix has %d columns", total, cols)
	}

	bs := make([]CurveBlock, len(blocks))
	copy(bs, blocks)
	return &CalibrationJacobian{blocks: bs, m: m}, nil
}

// Blocks returns the quote blocks the jacobian spans.
func (j *CalibrationJacobian) Blocks() []CurveBlock {
	out := make([]CurveBlock, len(j.blocks))
	copy(out, j.blocks)
	return out
}

// TotalQuotes returns the combined quote count across all blocks.
func (j *CalibrationJacobian) TotalQuotes() int {
	_, cols := j.m.Dims()
	return cols
}

// Matrix exposes the jacobian matrix read-only.
func (j *CalibrationJacobian) Matrix() mat.Matrix { return j.m }

// Apply right-multiplies a parameter sensitivity vector by the jacobian,
// converting it into a sensitivity to the spanned market quotes.
func (j *CalibrationJacobian) Apply(sens []float64) ([]float64, error) {
	rows, cols := j.m.Dims()
	if len(sens) != rows {
		return nil, fmt.Errorf("Apply: sensitivity has %d entries but jacobian has %d parameter rows", len(sens), rows)
	}

	v := mat.NewVecDense(rows, nil)
	for i, s := range sens {
		v.SetVec(i, s)
	}
	var out mat.VecDense
	out.MulVec(j.m.T(), v)

	res := make([]float64, cols)
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res, nil
}

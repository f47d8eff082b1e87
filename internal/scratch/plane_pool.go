package scratch

import "sync"

// planeDefaultRows covers a full unbinned FOV row count at the smallest
// common binning factor.
const planeDefaultRows = 480

var planePool = sync.Pool{
	New: func() interface{} {
		return make([][]float64, 0, planeDefaultRows)
	},
}

// PlaneVector is a pooled 2D float64 buffer sized rows x cols.
type PlaneVector struct {
	Buf  [][]float64
	rows []*Vector
}

// GetPlane returns a PlaneVector with Buf sized rows x cols. Each row is
// itself acquired from the flat Vector pool.
func GetPlane(rows, cols int) *PlaneVector {
	p := planePool.Get().([][]float64)
	if cap(p) < rows {
		p = make([][]float64, rows)
	} else {
		p = p[:rows]
	}

	rowVecs := make([]*Vector, rows)
	for r := 0; r < rows; r++ {
		v := Get(cols)
		rowVecs[r] = v
		p[r] = v.Buf
	}
	return &PlaneVector{Buf: p, rows: rowVecs}
}

// Release returns pv's row buffers and backing slice to their pools. It must
// not be used after this call.
func (pv *PlaneVector) Release() {
	if pv == nil {
		return
	}
	for _, v := range pv.rows {
		v.Release()
	}
	buf := pv.Buf[:0]
	pv.Buf = nil
	pv.rows = nil
	if cap(buf) <= planeDefaultRows*4 {
		planePool.Put(buf)
	}
}

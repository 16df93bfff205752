package vision

import (
	"sync"

	"gocv.io/x/gocv"
)

// Buffers is a scope for the intermediate Mats of one analysis pass.
// Everything handed out by Mat is closed by Release, so callers only need a
// single deferred Release to cover every exit path.
type Buffers struct {
	mats []*gocv.Mat
}

var buffersPool = sync.Pool{
	New: func() interface{} {
		return &Buffers{mats: make([]*gocv.Mat, 0, 8)}
	},
}

// AcquireBuffers returns an empty scope from the pool.
func AcquireBuffers() *Buffers {
	return buffersPool.Get().(*Buffers)
}

// Mat allocates a new empty Mat owned by the scope.
func (b *Buffers) Mat() *gocv.Mat {
	m := gocv.NewMat()
	b.mats = append(b.mats, &m)
	return &m
}

// Len returns the number of Mats currently owned by the scope.
func (b *Buffers) Len() int {
	return len(b.mats)
}

// Release closes every owned Mat and returns the scope to the pool.
// The scope must not be used afterwards.
func (b *Buffers) Release() {
	for i, m := range b.mats {
		m.Close()
		b.mats[i] = nil
	}
	b.mats = b.mats[:0]
	buffersPool.Put(b)
}

package queue

import "context"

const memoryBuffer = 1000

// MemoryDriver is the in-process fallback driver, used when Redis is not
// configured. Jobs do not survive a restart, which is fine for development
// and tests.
type MemoryDriver struct {
	ch chan []byte
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, memoryBuffer)}
}

// Push blocks when the buffer is full, applying backpressure to the
// dispatcher.
func (d *MemoryDriver) Push(payload []byte) error {
	d.ch <- payload
	return nil
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

package terminal

import "sync"

// Buffer is a thread-safe circular buffer for terminal output. When the
// buffer fills, the oldest bytes are dropped; a reader that lags simply
// loses scrollback, never blocks the producer.
type Buffer struct {
	data []byte
	size int
	head int
	tail int
	mu   sync.RWMutex
}

// NewBuffer creates a new circular buffer
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 64 * 1024
	}
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write writes data to the buffer. Implements io.Writer and never fails.
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size

		// If buffer is full, move head forward
		if b.tail == b.head {
			b.head = (b.head + 1) % b.size
		}
	}

	return len(p), nil
}

// ReadAll drains all buffered data
func (b *Buffer) ReadAll() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.head == b.tail {
		return []byte{}
	}

	var result []byte
	if b.tail > b.head {
		result = make([]byte, b.tail-b.head)
		copy(result, b.data[b.head:b.tail])
	} else {
		// Buffer wrapped around
		firstPart := b.data[b.head:]
		secondPart := b.data[:b.tail]
		result = make([]byte, len(firstPart)+len(secondPart))
		copy(result, firstPart)
		copy(result[len(firstPart):], secondPart)
	}

	b.head = b.tail
	return result
}

// Len reports the number of buffered bytes
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.tail >= b.head {
		return b.tail - b.head
	}
	return b.size - b.head + b.tail
}

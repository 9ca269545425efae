package camera

import "time"

// FrameQueue is a bounded, latest-wins frame buffer. Pushing into a full
// queue evicts the oldest frame: this feeds a live view, so only the newest
// frames matter.
type FrameQueue struct {
	ch chan []byte
}

// QueueDepth is the number of frames kept between producer and consumers.
const QueueDepth = 2

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{ch: make(chan []byte, QueueDepth)}
}

// Push enqueues a frame, dropping the oldest queued frame if the queue is
// full. Safe for concurrent use with Next.
func (q *FrameQueue) Push(frame []byte) {
	for {
		select {
		case q.ch <- frame:
			return
		default:
			select {
			case <-q.ch:
			default:
			}
		}
	}
}

// Next blocks until a frame arrives or the timeout elapses.
func (q *FrameQueue) Next(timeout time.Duration) ([]byte, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-q.ch:
		return frame, true
	case <-timer.C:
		return nil, false
	}
}

// Len reports the number of queued frames.
func (q *FrameQueue) Len() int {
	return len(q.ch)
}

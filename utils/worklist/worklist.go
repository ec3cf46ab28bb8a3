package worklist

// Worklist is a FIFO queue driving fixpoint iteration. Elements may be
// enqueued more than once; the iteration function decides when to stop
// re-adding them.
type Worklist[T any] struct {
	list []T
}

// Start worklist execution with the provided `start` element and an iteration
// function. The iteration function exposes the next element and a function
// with which to add more elements to the worklist.
func Start[T any](start T, do func(next T, add func(el T))) {
	w := Worklist[T]{}
	w.Add(start)
	w.Process(do)
}

func (w *Worklist[T]) GetNext() (ret T) {
	if len(w.list) == 0 {
		return
	}
	next := w.list[0]
	w.list = w.list[1:]
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}

func (w *Worklist[T]) Process(
	do func(
		next T,
		add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

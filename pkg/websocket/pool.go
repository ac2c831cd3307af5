package websocket

import "github.com/panjf2000/ants"

// TaskPool runs connection pumps and background jobs on a bounded set of goroutines.
type TaskPool struct {
	pool *ants.Pool
}

func NewTaskPool(size int) (*TaskPool, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &TaskPool{pool: p}, nil
}

func (tp *TaskPool) Submit(task func()) error {
	return tp.pool.Submit(task)
}

// Running reports how many workers are alive, busy or waiting to expire.
func (tp *TaskPool) Running() int {
	return tp.pool.Running()
}

func (tp *TaskPool) Release() {
	tp.pool.Release()
}

package parallel

import (
	"sync/atomic"
	"testing"
)

func TestRunCoversAllTasks(tst *testing.T) {
	pool := NewClient(4).View()
	n := 1000
	hits := make([]int32, n)
	pool.Run(n, func(worker, i int) {
		if worker < 0 || worker >= pool.Workers() {
			tst.Error("Worker index out of range:", worker)
		}
		atomic.AddInt32(&hits[i], 1)
	})
	for i, h := range hits {
		if h != 1 {
			tst.Error("Task", i, "executed", h, "times")
		}
	}
}

func TestRunFewerTasksThanWorkers(tst *testing.T) {
	pool := NewClient(8).View()
	var count int32
	pool.Run(3, func(worker, i int) {
		atomic.AddInt32(&count, 1)
	})
	if count != 3 {
		tst.Error("Expected 3 executions, got", count)
	}
}

func TestRunZeroTasks(tst *testing.T) {
	pool := NewClient(2).View()
	pool.Run(0, func(worker, i int) {
		tst.Error("No task should run for an empty batch")
	})
}

func TestDefaultWorkerCount(tst *testing.T) {
	if NewClient(0).View().Workers() < 1 {
		tst.Error("Expected at least one worker")
	}
	if NewClient(3).View().Workers() != 3 {
		tst.Error("Expected 3 workers")
	}
}

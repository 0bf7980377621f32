// Package utils contains the worker-pool helpers shared by the search packages.
package utils

import (
	"context"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated group size.
	BeforeParallelGroupWorkFunc func(groupSize int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel parallelizes the given size of work over multiple workers. Work is split into
// contiguous ranges, one per group, so a group can accumulate into its own buffer and merge in
// its done func. A panic in any member is recovered and returned as an error.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	numGroups := ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	if numGroups <= 0 {
		numGroups = 1
	}
	groupSize := int(math.Floor(float64(totalSize) / float64(numGroups)))
	extra := totalSize - groupSize*numGroups

	if before != nil {
		before(numGroups)
	}

	var (
		wait     sync.WaitGroup
		panicMu  sync.Mutex
		panicErr error
	)
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGoWithCallback(func() {
			defer wait.Done()
			groupNum := groupNumCopy

			thisGroupSize := groupSize
			thisExtra := 0
			if groupNum == (numGroups - 1) {
				thisExtra = extra
				thisGroupSize += thisExtra
			}
			from := groupSize * groupNum
			to := (groupSize * (groupNum + 1)) + thisExtra
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					if ctx.Err() != nil {
						return
					}
					memberWork(memberNum, workNum)
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		}, func(err interface{}) {
			panicMu.Lock()
			defer panicMu.Unlock()
			if panicErr == nil {
				panicErr = errors.Errorf("panic in parallel group work: %v", err)
			}
		})
	}
	wait.Wait()
	if panicErr != nil {
		return panicErr
	}
	return ctx.Err()
}

// ParallelForEachPixel calls f for every [x, y] inside size. Rows are split into contiguous
// bands, one goroutine per band, so f must be safe to call concurrently for distinct pixels.
func ParallelForEachPixel(size image.Point, f func(x, y int)) {
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	bands := ParallelFactor
	if bands > size.Y {
		bands = size.Y
	}
	rowsPerBand := int(math.Ceil(float64(size.Y) / float64(bands)))

	var wait sync.WaitGroup
	for top := 0; top < size.Y; top += rowsPerBand {
		bottom := top + rowsPerBand
		if bottom > size.Y {
			bottom = size.Y
		}
		wait.Add(1)
		fromRow, toRow := top, bottom
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			for y := fromRow; y < toRow; y++ {
				for x := 0; x < size.X; x++ {
					f(x, y)
				}
			}
		})
	}
	wait.Wait()
}

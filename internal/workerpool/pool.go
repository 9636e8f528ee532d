// Copyright 2025 Cuemby
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cuemby/createrepo-go/internal/ferrors"
	"github.com/cuemby/createrepo-go/internal/model"
)

// ProcessFunc executes the per-package pipeline for one Task. A nil
// return means the task was written or was abandoned after logging a
// recoverable per-package warning; a *ferrors.IndexError of a non-fatal
// Kind is also treated as recoverable. Any other non-nil error aborts the
// whole pool.
type ProcessFunc func(ctx context.Context, task model.Task) error

// Pool runs up to Workers goroutines draining Tasks, each invoking
// Process. A producer goroutine feeds the tasks over an unbuffered
// channel and stops early if the group's context is canceled; Run waits
// for the producer and all workers to finish.
type Pool struct {
	Workers int
	Process ProcessFunc

	// OnTaskDone, if set, is called after every task that doesn't abort
	// the pool (successful or recoverable per-package failure), letting
	// a caller drive a progress indicator. It must be safe to call
	// concurrently from any worker goroutine.
	OnTaskDone func()
}

// Run feeds tasks into Workers goroutines and waits for them to drain.
// It returns the first fatal error encountered (per-package errors are
// handled inside Process and never surface here); once a fatal error
// occurs, the context passed to outstanding workers is canceled so they
// stop taking new tasks as soon as possible. An operation already
// in-flight when cancellation fires is not itself interrupted.
func (p *Pool) Run(ctx context.Context, tasks []model.Task) error {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	taskCh := make(chan model.Task)

	grp.Go(func() error {
		defer close(taskCh)
		for _, t := range tasks {
			select {
			case taskCh <- t:
			case <-grpCtx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		grp.Go(func() error {
			for {
				select {
				case t, ok := <-taskCh:
					if !ok {
						return nil
					}
					if err := p.Process(grpCtx, t); err != nil {
						if ie, ok := err.(*ferrors.IndexError); ok && !ie.Fatal() {
							if p.OnTaskDone != nil {
								p.OnTaskDone()
							}
							continue
						}
						return err
					}
					if p.OnTaskDone != nil {
						p.OnTaskDone()
					}
				case <-grpCtx.Done():
					return grpCtx.Err()
				}
			}
		})
	}

	return grp.Wait()
}

package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/staging"
)

type Manager struct {
	client  staging.Downloader
	staging *staging.Manager
	workers int
	logger  *zap.Logger
}

type BatchResult struct {
	Total    int
	Success  int
	Skipped  int
	NotFound int
	Failed   int
	Errors   []string

	// Dates that ended up archived, downloaded or already present
	Available []string
	// Dates the archive has no price list for
	Missing []string
}

func NewManager(client staging.Downloader, staging *staging.Manager, workers int, logger *zap.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		client:  client,
		staging: staging,
		workers: workers,
		logger:  logger,
	}
}

func (m *Manager) Execute(ctx context.Context, tasks []Task) (*BatchResult, error) {
	result := &BatchResult{Total: len(tasks)}

	if len(tasks) == 0 {
		return result, nil
	}

	jobs := make(chan Task, len(tasks))
	results := make(chan TaskResult, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			m.worker(ctx, workerID, jobs, results)
		}(i)
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	for r := range results {
		switch {
		case r.Skipped:
			result.Skipped++
			result.Available = append(result.Available, r.Task.DateString())
		case r.NotFound:
			result.NotFound++
			result.Missing = append(result.Missing, r.Task.DateString())
		case r.Success:
			result.Success++
			result.Available = append(result.Available, r.Task.DateString())
		default:
			result.Failed++
			if r.Error != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task, r.Error))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	return result, nil
}

func (m *Manager) worker(ctx context.Context, id int, jobs <-chan Task, results chan<- TaskResult) {
	for task := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := m.processTask(ctx, task)
		m.logger.Debug("task finished", zap.Int("worker", id), zap.String("task", task.String()))

		select {
		case <-ctx.Done():
			return
		case results <- result:
		}
	}
}

func (m *Manager) processTask(ctx context.Context, task Task) TaskResult {
	result := TaskResult{Task: task}

	outputPath := task.OutputPath(m.staging.FinalDir())

	// Check if file exists (resume)
	if _, err := os.Stat(outputPath); err == nil {
		m.logger.Debug("skipping existing file", zap.String("task", task.String()))
		result.Skipped = true
		result.Success = true
		return result
	}

	m.logger.Info("downloading", zap.String("task", task.String()), zap.String("path", task.APIPath()))

	// Download to staging
	stagingPath := task.OutputPath(m.staging.StagingRoot())
	size, err := m.staging.DownloadToStaging(ctx, m.client, task.Date, stagingPath)
	if err != nil {
		if errors.Is(err, nse.ErrNotFound) {
			m.logger.Warn("price list not found", zap.String("task", task.String()))
			result.NotFound = true
			return result
		}
		result.Error = err
		return result
	}

	result.Success = true
	result.BytesSize = size
	m.logger.Info("downloaded", zap.String("task", task.String()), zap.Int64("bytes", size))

	return result
}

// Commit moves the staged price lists of dates into the archive and removes
// their staging folders. Every date is attempted; failures are joined.
func (m *Manager) Commit(dates []string) error {
	var errs []error
	for _, date := range dates {
		if err := m.staging.CommitStaging(date); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to commit staging", zap.String("date", date), zap.Error(err))
			errs = append(errs, fmt.Errorf("committing %s: %w", date, err))
		}
		if err := m.staging.CleanupStaging(date); err != nil {
			m.logger.Warn("failed to cleanup staging", zap.String("date", date), zap.Error(err))
			errs = append(errs, fmt.Errorf("cleaning %s: %w", date, err))
		}
	}
	return errors.Join(errs...)
}

// Fetch downloads the price lists of dates into the archive, resuming past
// days already present, and commits what was staged.
func (m *Manager) Fetch(ctx context.Context, dates []time.Time) (*BatchResult, error) {
	tasks := make([]Task, 0, len(dates))
	for _, d := range dates {
		tasks = append(tasks, Task{Date: d})
	}

	result, err := m.Execute(ctx, tasks)
	if err != nil {
		return result, err
	}

	if result.Success > 0 {
		if err := m.Commit(result.Available); err != nil {
			return result, err
		}
	}
	return result, nil
}

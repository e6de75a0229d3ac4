package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Sync handles "sync": one full pass over the queue, right now.
func (a *App) Sync(ctx context.Context) error {
	result := a.orchestrator.SyncAll(ctx)
	if result.Pending > 0 {
		if a.monitor.IsConnected() {
			printlnFn("Sync already in progress")
		} else {
			printlnFn("Offline, items stay queued")
		}
		return nil
	}
	printlnFn(fmt.Sprintf("Sync finished: %d synced, %d failed", result.Success, result.Failure))
	return nil
}

// SyncStatus handles "status": pending counts per entity type plus any
// dead-lettered items.
func (a *App) SyncStatus(ctx context.Context) error {
	stats, err := a.orchestrator.Status(ctx)
	if err != nil {
		printlnFn("Status failed:", err.Error())
		return err
	}

	if len(stats) == 0 {
		printlnFn("Queue is empty")
	} else {
		types := make([]string, 0, len(stats))
		for et := range stats {
			types = append(types, string(et))
		}
		sort.Strings(types)
		printlnFn("Pending:")
		for _, et := range types {
			printlnFn(fmt.Sprintf("  %-12s %d", et, stats[models.EntityType(et)]))
		}
	}

	dead, err := a.orchestrator.DeadItems(ctx)
	if err != nil {
		printlnFn("Status failed:", err.Error())
		return err
	}
	if len(dead) > 0 {
		printlnFn("Dead (use 'retry' to revive):")
		for _, item := range dead {
			printlnFn(fmt.Sprintf("  %s/%s after %d attempts: %s",
				item.EntityType, item.EntityID, item.RetryCount, item.LastError))
		}
	}
	return nil
}

// Retry handles "retry": revives dead items so the next pass picks them up.
func (a *App) Retry(ctx context.Context) error {
	n, err := a.orchestrator.RetryDead(ctx)
	if err != nil {
		printlnFn("Retry failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Revived %d dead item(s)", n))
	return nil
}

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"maintenance-reminder/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "repo_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedDevice(t *testing.T, db *gorm.DB, name string) *model.Device {
	t.Helper()
	device := &model.Device{Name: name}
	if err := NewDeviceRepository(db).Create(context.Background(), device); err != nil {
		t.Fatalf("seed device: %v", err)
	}
	return device
}

func seedTask(t *testing.T, db *gorm.DB, deviceID uint, title string, due time.Time) *model.Task {
	t.Helper()
	task := &model.Task{
		DeviceID:      deviceID,
		Title:         title,
		IntervalValue: 1,
		IntervalUnit:  model.UnitMonths,
		NextDueDate:   due,
		IsActive:      true,
	}
	if err := NewTaskRepository(db).Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func TestListByDeviceOrdersByDueDate(t *testing.T) {
	db := openTestDB(t)
	device := seedDevice(t, db, "Press")
	base := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	seedTask(t, db, device.ID, "third", base.AddDate(0, 2, 0))
	seedTask(t, db, device.ID, "first", base)
	seedTask(t, db, device.ID, "second", base.AddDate(0, 1, 0))

	tasks, err := NewTaskRepository(db).ListByDevice(context.Background(), device.ID)
	if err != nil {
		t.Fatalf("list by device: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}
	for i, want := range []string{"first", "second", "third"} {
		if tasks[i].Title != want {
			t.Fatalf("position %d = %q, want %q", i, tasks[i].Title, want)
		}
	}
}

func TestNearestDueBreaksTiesByDeviceName(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	now := time.Now().UTC()
	due := now.AddDate(0, 0, 5)

	beta := seedDevice(t, db, "Beta")
	alpha := seedDevice(t, db, "Alpha")
	seedTask(t, db, beta.ID, "beta task", due)
	fromAlpha := seedTask(t, db, alpha.ID, "alpha task", due)

	nearest, err := repo.NearestDue(context.Background(), now)
	if err != nil {
		t.Fatalf("nearest due: %v", err)
	}
	if nearest == nil || nearest.ID != fromAlpha.ID {
		t.Fatalf("nearest = %+v, want the Alpha device task", nearest)
	}
}

func TestNearestDueEmptyStore(t *testing.T) {
	db := openTestDB(t)
	nearest, err := NewTaskRepository(db).NearestDue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("nearest due: %v", err)
	}
	if nearest != nil {
		t.Fatalf("nearest = %+v, want nil", nearest)
	}
}

func TestNearestDueIncludesLastCompletion(t *testing.T) {
	db := openTestDB(t)
	device := seedDevice(t, db, "Lathe")
	now := time.Now().UTC()
	task := seedTask(t, db, device.ID, "lube ways", now.AddDate(0, 0, 7))

	completed := now.AddDate(0, -1, 0)
	entry := &model.HistoryEntry{
		TaskID:          task.ID,
		DeviceID:        device.ID,
		CompletionDate:  completed,
		PreviousDueDate: now.AddDate(0, 0, -23),
	}
	if err := NewHistoryRepository(db).Append(context.Background(), entry); err != nil {
		t.Fatalf("append history: %v", err)
	}

	nearest, err := NewTaskRepository(db).NearestDue(context.Background(), now)
	if err != nil {
		t.Fatalf("nearest due: %v", err)
	}
	if nearest == nil || nearest.LastCompletion == nil {
		t.Fatalf("nearest = %+v, want last completion set", nearest)
	}
	if nearest.LastCompletion.UTC().Format("2006-01-02") != completed.Format("2006-01-02") {
		t.Fatalf("last completion = %v, want %v", nearest.LastCompletion, completed)
	}
}

func TestHistoryListsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	device := seedDevice(t, db, "Compressor")
	task := seedTask(t, db, device.ID, "drain tank", time.Now().UTC().AddDate(0, 1, 0))
	history := NewHistoryRepository(db)
	ctx := context.Background()

	base := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &model.HistoryEntry{
			TaskID:          task.ID,
			DeviceID:        device.ID,
			CompletionDate:  base.AddDate(0, i, 0),
			PreviousDueDate: base,
		}
		if err := history.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := history.ListByDevice(ctx, device.ID)
	if err != nil {
		t.Fatalf("list by device: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CompletionDate.After(entries[i-1].CompletionDate) {
			t.Fatalf("entries not newest-first: %v before %v",
				entries[i-1].CompletionDate, entries[i].CompletionDate)
		}
	}
	if entries[0].TaskTitle != "drain tank" || entries[0].DeviceName != "Compressor" {
		t.Fatalf("joined names missing: %+v", entries[0])
	}

	latest, err := history.MostRecentForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("most recent: %v", err)
	}
	if latest == nil || !latest.CompletionDate.Equal(entries[0].CompletionDate) {
		t.Fatalf("most recent = %+v, want %v", latest, entries[0].CompletionDate)
	}

	if none, err := history.MostRecentForTask(ctx, 9999); err != nil || none != nil {
		t.Fatalf("most recent for unknown task = %+v, %v; want nil, nil", none, err)
	}
}

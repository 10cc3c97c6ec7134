// internal/services/progress_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrackerIsIdempotent(t *testing.T) {
	svc := NewProgressService()

	first := svc.CreateTracker("t1", nil)
	second := svc.CreateTracker("t1", nil)
	assert.Same(t, first, second)

	tracker, exists := svc.GetTracker("t1")
	require.True(t, exists)
	assert.Same(t, first, tracker)

	_, exists = svc.GetTracker("missing")
	assert.False(t, exists)
}

func TestSubscribeDeliversCurrentStateFirst(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("t1", nil)
	tracker.UpdateProgress(40, "抓取中")

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	select {
	case update := <-updates:
		assert.Equal(t, 40, update.Progress)
		assert.Equal(t, "抓取中", update.Message)
		assert.Equal(t, TaskStatusRunning, update.Status)
	default:
		t.Fatal("订阅后应立即收到当前状态")
	}
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("t1", nil)

	tracker.UpdateProgress(50, "halfway")
	// 进度回退被忽略，消息照常更新
	tracker.UpdateProgress(30, "later message")

	snapshot := tracker.Snapshot()
	assert.Equal(t, 50, snapshot.Progress)
	assert.Equal(t, "later message", snapshot.Message)
}

func TestUpdateProgressNoOpAfterFinish(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("t1", nil)

	tracker.Complete("")
	tracker.UpdateProgress(50, "too late")

	snapshot := tracker.Snapshot()
	assert.Equal(t, TaskStatusCompleted, snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, "任务已完成", snapshot.Message)
}

func TestFinishClosesDoneOnce(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("t1", nil)

	tracker.Fail("boom")
	// 第二次终态迁移不应panic，状态保持首个终态
	tracker.Complete("ignored")

	select {
	case <-tracker.Done:
	default:
		t.Fatal("Done应已关闭")
	}

	snapshot := tracker.Snapshot()
	assert.Equal(t, TaskStatusFailed, snapshot.Status)
	assert.Equal(t, "任务失败: boom", snapshot.Message)
}

func TestCancelInvokesCancelFunc(t *testing.T) {
	svc := NewProgressService()
	ctx, cancel := context.WithCancel(context.Background())
	tracker := svc.CreateTracker("t1", cancel)

	require.True(t, svc.Cancel("t1"))

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("底层context未被取消")
	}
	assert.Equal(t, TaskStatusCancelled, tracker.Snapshot().Status)

	// 未知任务和已结束任务都返回false
	assert.False(t, svc.Cancel("missing"))
	assert.False(t, svc.Cancel("t1"))
}

func TestSubscriberReceivesTerminalUpdate(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("t1", nil)

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)
	<-updates // 初始状态

	tracker.Complete("全部完成")

	select {
	case update := <-updates:
		assert.Equal(t, TaskStatusCompleted, update.Status)
		assert.Equal(t, "全部完成", update.Message)
	case <-time.After(time.Second):
		t.Fatal("未收到终态更新")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("t1", nil)

	updates := tracker.Subscribe()
	tracker.Unsubscribe(updates)
	// 重复取消订阅不应再次close
	tracker.Unsubscribe(updates)

	// 通道已关闭
	_, open := <-updates
	assert.False(t, open)
}

func TestCleanupCompletedTasks(t *testing.T) {
	svc := NewProgressService()

	running := svc.CreateTracker("running", nil)
	_ = running
	done := svc.CreateTracker("done", nil)
	done.Complete("")

	// 只清理已结束且超龄的任务
	svc.CleanupCompletedTasks(time.Hour)
	_, exists := svc.GetTracker("done")
	assert.True(t, exists)

	svc.CleanupCompletedTasks(0)
	_, exists = svc.GetTracker("done")
	assert.False(t, exists)
	_, exists = svc.GetTracker("running")
	assert.True(t, exists)
}

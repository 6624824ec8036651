package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Nefnief-tech/gardes-v2/config"
	"github.com/Nefnief-tech/gardes-v2/internal/model"
	"github.com/Nefnief-tech/gardes-v2/internal/repository"
	apperrors "github.com/Nefnief-tech/gardes-v2/pkg/errors"
	"github.com/Nefnief-tech/gardes-v2/pkg/events"
)

// ── 测试辅助 ──

func setupTestSyncService(cloudEnabled bool, local *mockLocalStore, mirror repository.CloudMirror) (SyncService, *recordingPublisher) {
	repo := &repository.Repository{Local: local}
	if mirror != nil {
		repo.Cloud = mirror
	}
	pub := &recordingPublisher{}
	feature := &config.FeatureConfig{CloudEnabled: cloudEnabled, CloudTimeout: time.Second}
	return NewSyncService(feature, repo, pub, zap.NewNop()), pub
}

func localSubjects() []model.Subject {
	return []model.Subject{
		{ID: "math", Name: "Mathematik", Grades: []model.Grade{
			{Value: 2, Type: "Test", Weight: model.Float64Ptr(2), Date: "2026-03-01"},
		}, AverageGrade: model.Float64Ptr(2)},
	}
}

func cloudSubjects() []model.Subject {
	return []model.Subject{
		{ID: "physik", Name: "Physik", Grades: []model.Grade{
			{Value: 1, Type: "Oral", Weight: model.Float64Ptr(1), Date: "2026-04-01"},
		}, AverageGrade: model.Float64Ptr(1)},
	}
}

var cloudOpts = SyncOptions{UserID: "user-1", SyncEnabled: true}

// blockingMirror 阻塞直到上下文结束
type blockingMirror struct{}

func (blockingMirror) Fetch(ctx context.Context, _ string) ([]model.Subject, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingMirror) Push(ctx context.Context, _ string, _ []model.Subject) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

// ── Load 测试 ──

func TestSyncService_Load_CloudDisabledIgnoresUser(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	mirror := newMockCloudMirror()
	mirror.data["user-1"] = cloudSubjects()
	svc, _ := setupTestSyncService(false, local, mirror)

	withUser := svc.Load(context.Background(), cloudOpts)
	anonymous := svc.Load(context.Background(), SyncOptions{})

	if !reflect.DeepEqual(withUser, anonymous) {
		t.Errorf("云端关闭时带用户读取应与匿名读取一致\n带用户: %+v\n匿名: %+v", withUser, anonymous)
	}
	if withUser.Source != SourceLocal {
		t.Errorf("期望 Source=local，实际=%s", withUser.Source)
	}
	if mirror.fetchCalls != 0 {
		t.Errorf("云端关闭时不应访问云端，实际调用 %d 次", mirror.fetchCalls)
	}
}

func TestSyncService_Load_CloudWinsAndWritesThrough(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	mirror := newMockCloudMirror()
	mirror.data["user-1"] = cloudSubjects()
	svc, _ := setupTestSyncService(true, local, mirror)

	result := svc.Load(context.Background(), cloudOpts)

	if result.Source != SourceCloud {
		t.Fatalf("期望 Source=cloud，实际=%s", result.Source)
	}
	if !reflect.DeepEqual(result.Subjects, cloudSubjects()) {
		t.Errorf("期望返回云端数据，实际: %+v", result.Subjects)
	}
	if !reflect.DeepEqual(local.subjects, cloudSubjects()) {
		t.Errorf("云端数据应写穿到本地，实际本地: %+v", local.subjects)
	}
}

func TestSyncService_Load_CloudLegacyDataIsMigrated(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	mirror := newMockCloudMirror()
	mirror.data["user-1"] = []model.Subject{
		{ID: "math", Name: "Mathematik", Grades: []model.Grade{
			{Value: 2, Type: "Test", Date: "2026-01-10"},
			{Value: 4, Type: "Other", Date: "2026-01-20"},
		}},
		{ID: "german", Name: "Deutsch"},
	}
	svc, _ := setupTestSyncService(true, local, mirror)

	result := svc.Load(context.Background(), cloudOpts)

	if result.Source != SourceCloud {
		t.Fatalf("期望 Source=cloud，实际=%s", result.Source)
	}
	math := result.Subjects[0]
	if math.Grades[0].Weight == nil || *math.Grades[0].Weight != 2 {
		t.Errorf("Test 成绩应补齐权重 2，实际 %v", math.Grades[0].Weight)
	}
	if math.Grades[1].Weight == nil || *math.Grades[1].Weight != 1 {
		t.Errorf("其他成绩应补齐权重 1，实际 %v", math.Grades[1].Weight)
	}
	if math.AverageGrade == nil || *math.AverageGrade != 2.67 {
		t.Errorf("期望平均分 2.67，实际 %v", math.AverageGrade)
	}
	if result.Subjects[1].Grades == nil {
		t.Error("云端 null 成绩应迁移为空数组")
	}
	if !reflect.DeepEqual(local.subjects, result.Subjects) {
		t.Errorf("写穿到本地的应是迁移后的数据，实际本地: %+v", local.subjects)
	}
}

func TestSyncService_Load_CloudEmptyFallsBack(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	svc, _ := setupTestSyncService(true, local, newMockCloudMirror())

	result := svc.Load(context.Background(), cloudOpts)

	if result.Source != SourceLocal {
		t.Errorf("云端无数据时期望 Source=local，实际=%s", result.Source)
	}
	if result.Subjects[0].ID != "math" {
		t.Errorf("期望本地数据，实际: %+v", result.Subjects)
	}
	if local.saveCalls != 0 {
		t.Errorf("回退本地时不应写入，实际写入 %d 次", local.saveCalls)
	}
}

func TestSyncService_Load_CloudErrorFallsBack(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	mirror := newMockCloudMirror()
	mirror.fetchErr = apperrors.ErrNetwork
	svc, _ := setupTestSyncService(true, local, mirror)

	localOnly, _ := setupTestSyncService(false, newMockLocalStore(localSubjects()), nil)

	got := svc.Load(context.Background(), cloudOpts)
	want := localOnly.Load(context.Background(), SyncOptions{})

	if !reflect.DeepEqual(got, want) {
		t.Errorf("云端失败时应与纯本地读取一致\n实际: %+v\n期望: %+v", got, want)
	}
}

func TestSyncService_Load_CloudPanicFallsBack(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	mirror := newMockCloudMirror()
	mirror.panicFetch = true
	svc, _ := setupTestSyncService(true, local, mirror)

	result := svc.Load(context.Background(), cloudOpts)

	if result.Source != SourceLocal || len(result.Subjects) != 1 {
		t.Errorf("云端 panic 时期望回退本地，实际: %+v", result)
	}
}

func TestSyncService_Load_CloudInvalidFallsBack(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	mirror := newMockCloudMirror()
	mirror.data["user-1"] = []model.Subject{{ID: "", Name: "kaputt"}}
	svc, _ := setupTestSyncService(true, local, mirror)

	result := svc.Load(context.Background(), cloudOpts)

	if result.Source != SourceLocal {
		t.Errorf("云端数据不完整时期望 Source=local，实际=%s", result.Source)
	}
}

func TestSyncService_Load_Timeout(t *testing.T) {
	local := newMockLocalStore(localSubjects())
	repo := &repository.Repository{Local: local, Cloud: blockingMirror{}}
	feature := &config.FeatureConfig{CloudEnabled: true, CloudTimeout: 20 * time.Millisecond}
	svc := NewSyncService(feature, repo, nil, zap.NewNop())

	start := time.Now()
	result := svc.Load(context.Background(), cloudOpts)

	if result.Source != SourceLocal {
		t.Errorf("超时后期望 Source=local，实际=%s", result.Source)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("超时未生效，耗时 %v", elapsed)
	}
}

func TestSyncService_Load_RequiresUserAndPreference(t *testing.T) {
	mirror := newMockCloudMirror()
	mirror.data["user-1"] = cloudSubjects()
	svc, _ := setupTestSyncService(true, newMockLocalStore(localSubjects()), mirror)

	for _, opts := range []SyncOptions{
		{UserID: "", SyncEnabled: true},
		{UserID: "user-1", SyncEnabled: false},
	} {
		if result := svc.Load(context.Background(), opts); result.Source != SourceLocal {
			t.Errorf("opts=%+v 期望 Source=local，实际=%s", opts, result.Source)
		}
	}
	if mirror.fetchCalls != 0 {
		t.Errorf("不应访问云端，实际调用 %d 次", mirror.fetchCalls)
	}
}

// ── Save 测试 ──

func TestSyncService_Save_LocalOnly(t *testing.T) {
	local := newMockLocalStore(nil)
	mirror := newMockCloudMirror()
	svc, pub := setupTestSyncService(true, local, mirror)

	result, err := svc.Save(context.Background(), localSubjects(), SyncOptions{})
	if err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	want := SyncResult{LocalOK: true}
	if result != want {
		t.Errorf("期望 %+v，实际 %+v", want, result)
	}
	if mirror.pushCalls != 0 {
		t.Errorf("匿名写入不应推送云端")
	}
	if len(pub.snapshot()) != 0 {
		t.Errorf("纯本地写入不应发布同步事件")
	}
}

func TestSyncService_Save_CloudSuccess(t *testing.T) {
	local := newMockLocalStore(nil)
	mirror := newMockCloudMirror()
	svc, pub := setupTestSyncService(true, local, mirror)

	result, err := svc.Save(context.Background(), localSubjects(), cloudOpts)
	if err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	want := SyncResult{LocalOK: true, CloudAttempted: true, CloudOK: true}
	if result != want {
		t.Errorf("期望 %+v，实际 %+v", want, result)
	}
	if result.Degraded() {
		t.Error("推送成功时不应标记为降级")
	}
	if !reflect.DeepEqual(mirror.data["user-1"], localSubjects()) {
		t.Errorf("云端应收到完整集合")
	}
	if len(pub.snapshot()) != 0 {
		t.Errorf("推送成功不应发布降级事件")
	}
}

func TestSyncService_Save_CloudFailureIsAdvisory(t *testing.T) {
	tests := []struct {
		name   string
		mirror func() *mockCloudMirror
	}{
		{"推送报错", func() *mockCloudMirror {
			m := newMockCloudMirror()
			m.pushErr = apperrors.ErrNetwork
			return m
		}},
		{"推送返回 false", func() *mockCloudMirror {
			m := newMockCloudMirror()
			m.pushResult = false
			return m
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newMockLocalStore(nil)
			svc, pub := setupTestSyncService(true, local, tt.mirror())

			result, err := svc.Save(context.Background(), localSubjects(), cloudOpts)
			if err != nil {
				t.Fatalf("云端失败不应导致整体失败: %v", err)
			}
			if !result.Degraded() {
				t.Errorf("期望降级结果，实际 %+v", result)
			}
			if !reflect.DeepEqual(local.subjects, localSubjects()) {
				t.Errorf("本地应已写入")
			}

			evs := pub.snapshot()
			if len(evs) != 1 {
				t.Fatalf("期望 1 个事件，实际 %d", len(evs))
			}
			if evs[0].Type != events.SyncPreferenceChanged || !evs[0].Degraded {
				t.Errorf("期望降级的 syncPreferenceChanged 事件，实际 %+v", evs[0])
			}
		})
	}
}

func TestSyncService_Save_LocalFailure(t *testing.T) {
	local := newMockLocalStore(nil)
	local.saveErr = apperrors.ErrSerialization
	mirror := newMockCloudMirror()
	svc, _ := setupTestSyncService(true, local, mirror)

	result, err := svc.Save(context.Background(), localSubjects(), cloudOpts)
	if !errors.Is(err, apperrors.ErrSerialization) {
		t.Errorf("期望 ErrSerialization，实际: %v", err)
	}
	if result.LocalOK {
		t.Error("本地写入失败时 LocalOK 应为 false")
	}
	if !result.CloudAttempted {
		t.Error("本地失败不影响云端尝试")
	}
}

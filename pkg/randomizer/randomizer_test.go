package randomizer

import (
	"errors"
	"math"
	"testing"

	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/curve"
	"github.com/decker502/floatrand/pkg/directory"
	"github.com/decker502/floatrand/pkg/persist"
	"github.com/decker502/floatrand/pkg/resolver"
	"github.com/decker502/floatrand/pkg/settings"
)

const tickDelta = 1.0 / 60

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Seed = 42
	cfg.PollInterval = 0.5
	return cfg
}

func newTestDirectory() *directory.Memory {
	dir := directory.NewMemory()
	dir.AddParameter("Person", "geometry", "smile", directory.NewParam(0.3, 0, 1))
	dir.AddParameter("Light", "light", "intensity", directory.NewParam(2, 0, 5))
	return dir
}

func selectSmile(t *testing.T, r *Randomizer) {
	t.Helper()
	if err := r.Select(resolver.LevelContainer, "Person"); err != nil {
		t.Fatalf("select container: %v", err)
	}
	if err := r.Select(resolver.LevelComponent, "geometry"); err != nil {
		t.Fatalf("select component: %v", err)
	}
	if err := r.Select(resolver.LevelParameter, "smile"); err != nil {
		t.Fatalf("select parameter: %v", err)
	}
}

func TestGate_NotReady(t *testing.T) {
	r := New(testConfig(), newTestDirectory())
	defer r.Close()

	if r.Phase() != Uninitialized {
		t.Fatalf("Phase() = %s, 期望 uninitialized", r.Phase())
	}
	if r.Tick(tickDelta) {
		t.Error("未就绪时 Tick 不应推进")
	}
	if r.Ticks() != 0 {
		t.Errorf("Ticks() = %d, 期望 0", r.Ticks())
	}

	mutations := map[string]error{
		"period":    r.SetPeriod(2),
		"quickness": r.SetQuickness(2),
		"lower":     r.SetLower(0.1),
		"upper":     r.SetUpper(0.9),
		"random":    r.SetEnableRandomness(false),
		"kind":      r.SetCurveKind(curve.KindBounceInOut),
		"midpoint":  r.SetMidpoint(0.3),
		"curvature": r.SetCurvature(0.5),
		"select":    r.Select(resolver.LevelContainer, "Person"),
		"save":      r.Save(),
	}
	for name, err := range mutations {
		if !errors.Is(err, ErrNotReady) {
			t.Errorf("%s: err = %v, 期望 ErrNotReady", name, err)
		}
	}
	if _, err := r.CycleSelection(resolver.LevelContainer, 1); !errors.Is(err, ErrNotReady) {
		t.Errorf("CycleSelection err = %v, 期望 ErrNotReady", err)
	}
	if r.Settings.Period.Val() != 1 {
		t.Error("未就绪时配置不应被修改")
	}
}

// TestBind_MirrorsTarget 首次绑定时上下界和当前值镜像目标值，范围镜像目标范围
func TestBind_MirrorsTarget(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()
	r.Init()

	if err := r.Select(resolver.LevelContainer, "Light"); err != nil {
		t.Fatal(err)
	}
	_ = r.Select(resolver.LevelComponent, "light")
	_ = r.Select(resolver.LevelParameter, "intensity")

	s := r.Settings
	if s.Lower.Val() != 2 || s.Upper.Val() != 2 {
		t.Errorf("bounds = [%v, %v], 期望 [2, 2]", s.Lower.Val(), s.Upper.Val())
	}
	if s.Lower.Min() != 0 || s.Lower.Max() != 5 || s.Upper.Max() != 5 {
		t.Errorf("range = [%v, %v], 期望 [0, 5]", s.Lower.Min(), s.Lower.Max())
	}
	if r.Value() != 2 || r.TargetValue() != 2 {
		t.Errorf("value/target = %v/%v, 期望 2/2", r.Value(), r.TargetValue())
	}

	// 绑定后下一个 tick 立即翻转
	before := r.Scheduler().Rollovers()
	r.Tick(tickDelta)
	if r.Scheduler().Rollovers() != before+1 {
		t.Error("绑定后的第一个 tick 应翻转")
	}
}

func TestTick_WritesTarget(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()
	r.Init()
	selectSmile(t, r)

	if err := r.SetLower(0.1); err != nil {
		t.Fatal(err)
	}
	if err := r.SetUpper(0.9); err != nil {
		t.Fatal(err)
	}

	p, _ := dir.Param("Person", "geometry", "smile")
	for i := 0; i < 300; i++ {
		if !r.Tick(tickDelta) {
			t.Fatalf("tick %d 未推进", i)
		}
		if p.Value() != r.Value() {
			t.Fatalf("tick %d: 目标值 %v != 当前值 %v", i, p.Value(), r.Value())
		}
		if r.Value() < 0.1-1e-9 || r.Value() > 0.9+1e-9 {
			t.Fatalf("tick %d: 当前值 %v 超出 [0.1, 0.9]", i, r.Value())
		}
	}
	if r.Writes() != 300 {
		t.Errorf("Writes() = %d, 期望 300", r.Writes())
	}
}

// TestLateTarget_NoWritesUntilResolved 目标延迟出现时不写入，出现后只绑定一次
func TestLateTarget_NoWritesUntilResolved(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()
	r.Init()

	_ = r.Select(resolver.LevelContainer, "Person")
	_ = r.Select(resolver.LevelComponent, "hair")
	_ = r.Select(resolver.LevelParameter, "stiffness")

	for i := 0; i < 60; i++ {
		r.Tick(tickDelta)
	}
	if r.Writes() != 0 {
		t.Fatalf("目标不存在时 Writes() = %d, 期望 0", r.Writes())
	}

	dir.AddParameter("Person", "hair", "stiffness", directory.NewParam(1.5, 0, 2))
	for i := 0; i < 60; i++ {
		r.Tick(tickDelta)
	}

	if r.Resolver().State(resolver.LevelParameter) != resolver.Resolved {
		t.Fatalf("参数状态 = %s, 期望 resolved", r.Resolver().State(resolver.LevelParameter))
	}
	if r.Resolver().Binds() != 1 {
		t.Errorf("Binds() = %d, 期望 1", r.Resolver().Binds())
	}
	if r.Writes() == 0 {
		t.Error("解析后应写入目标")
	}
	if r.Settings.Upper.Max() != 2 {
		t.Errorf("上界范围 = %v, 期望镜像为 2", r.Settings.Upper.Max())
	}
}

// TestRoundTrip_SameTrajectory 存档恢复到新实例后轨迹相同
func TestRoundTrip_SameTrajectory(t *testing.T) {
	dir1 := newTestDirectory()
	r1 := New(testConfig(), dir1)
	defer r1.Close()
	r1.Init()
	// 周期在绑定前设置，两个实例重新同步时的累积时间相同
	_ = r1.SetPeriod(0.5)
	selectSmile(t, r1)
	_ = r1.SetLower(0.2)
	_ = r1.SetUpper(0.8)
	_ = r1.SetCurveKind(curve.KindBounceInOut)
	_ = r1.SetCurvature(0.4)

	doc := r1.Snapshot()

	dir2 := newTestDirectory()
	r2 := New(testConfig(), dir2)
	defer r2.Close()
	if err := r2.Restore(doc); err != nil {
		t.Fatalf("Restore error: %v", err)
	}

	if r2.Phase() != Ready {
		t.Fatal("Restore 后应进入 Ready")
	}
	for _, level := range resolver.Levels() {
		if r2.Resolver().State(level) != resolver.Resolved {
			t.Errorf("%s state = %s, 期望 resolved", level, r2.Resolver().State(level))
		}
	}
	if r2.Settings.Snapshot() != r1.Settings.Snapshot() {
		t.Errorf("settings = %+v, 期望 %+v", r2.Settings.Snapshot(), r1.Settings.Snapshot())
	}
	if r2.Shape.Current() != r1.Shape.Current() {
		t.Errorf("shape = %+v, 期望 %+v", r2.Shape.Current(), r1.Shape.Current())
	}
	if r2.Scheduler().State() != r1.Scheduler().State() {
		t.Errorf("state = %+v, 期望 %+v", r2.Scheduler().State(), r1.Scheduler().State())
	}

	for i := 0; i < 240; i++ {
		r1.Tick(tickDelta)
		r2.Tick(tickDelta)
		if r1.Value() != r2.Value() {
			t.Fatalf("tick %d: %v != %v", i, r1.Value(), r2.Value())
		}
	}
}

// TestRestore_KeepsPersistedBounds 恢复时绑定不覆盖存档中的上下界
func TestRestore_KeepsPersistedBounds(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()

	doc := persist.Document{
		settings.KeyLowerValue: "0.1",
		settings.KeyUpperValue: "0.6",
		persist.KeyContainer:   "Person",
		persist.KeyComponent:   "geometry",
		persist.KeyParameter:   "smile",
	}
	if err := r.Restore(doc); err != nil {
		t.Fatal(err)
	}
	if r.Settings.Lower.Val() != 0.1 || r.Settings.Upper.Val() != 0.6 {
		t.Errorf("bounds = [%v, %v], 期望 [0.1, 0.6]", r.Settings.Lower.Val(), r.Settings.Upper.Val())
	}
	if r.Value() != 0.3 {
		t.Errorf("Value() = %v, 期望重新同步为目标值 0.3", r.Value())
	}
}

// TestRestore_LateContainer 恢复时容器尚不存在，出现后绑定且不镜像
func TestRestore_LateContainer(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()

	doc := persist.Document{
		settings.KeyLowerValue: "0.25",
		settings.KeyUpperValue: "0.75",
		persist.KeyContainer:   "Late",
		persist.KeyComponent:   "body",
		persist.KeyParameter:   "scale",
	}
	if err := r.Restore(doc); err != nil {
		t.Fatalf("缺失的容器不应导致恢复失败: %v", err)
	}
	if r.Resolver().State(resolver.LevelContainer) != resolver.Missing {
		t.Fatalf("container state = %s, 期望 missing", r.Resolver().State(resolver.LevelContainer))
	}

	dir.AddParameter("Late", "body", "scale", directory.NewParam(0.5, 0, 1))
	for i := 0; i < 40; i++ {
		r.Tick(tickDelta)
	}

	if r.Resolver().State(resolver.LevelParameter) != resolver.Resolved {
		t.Fatal("容器出现后应完成解析")
	}
	if r.Settings.Lower.Val() != 0.25 || r.Settings.Upper.Val() != 0.75 {
		t.Errorf("bounds = [%v, %v], 期望保留 [0.25, 0.75]", r.Settings.Lower.Val(), r.Settings.Upper.Val())
	}
}

func TestRestore_Malformed(t *testing.T) {
	r := New(testConfig(), newTestDirectory())
	defer r.Close()

	err := r.Restore(persist.Document{settings.KeyPeriod: "slow"})
	if !errors.Is(err, persist.ErrMalformedValue) {
		t.Errorf("err = %v, 期望 ErrMalformedValue", err)
	}
	if r.Phase() != Uninitialized {
		t.Error("恢复失败不应进入 Ready")
	}
}

func TestScheduleRestore_WaitsForHost(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()

	ready := false
	doc := persist.Document{
		persist.KeyContainer: "Person",
		persist.KeyComponent: "geometry",
		persist.KeyParameter: "smile",
	}
	r.ScheduleRestore(doc, func() bool { return ready })

	for i := 0; i < 5; i++ {
		if r.Tick(tickDelta) {
			t.Fatal("宿主未就绪时 tick 不应推进")
		}
	}
	if r.Phase() != Uninitialized {
		t.Fatal("宿主未就绪时不应恢复")
	}

	ready = true
	if r.Tick(tickDelta) {
		t.Error("完成恢复的 tick 不应推进")
	}
	if r.Phase() != Ready {
		t.Fatal("宿主就绪后应完成恢复")
	}
	if !r.Tick(tickDelta) {
		t.Error("恢复后 tick 应推进")
	}
	if r.Writes() != 1 {
		t.Errorf("Writes() = %d, 期望 1", r.Writes())
	}
}

func TestScheduleRestore_BadDocumentFallsBack(t *testing.T) {
	r := New(testConfig(), newTestDirectory())
	defer r.Close()

	r.ScheduleRestore(persist.Document{persist.KeyVersion: "99"}, nil)
	r.Tick(tickDelta)

	if r.Phase() != Ready {
		t.Error("存档不可用时应以当前配置进入 Ready")
	}
	if !errors.Is(r.LastError(), persist.ErrUnsupportedVersion) {
		t.Errorf("LastError() = %v, 期望 ErrUnsupportedVersion", r.LastError())
	}
}

func TestScheduleRestore_NonFiniteFallsBack(t *testing.T) {
	dir := newTestDirectory()
	r := New(testConfig(), dir)
	defer r.Close()

	r.ScheduleRestore(persist.Document{
		settings.KeyLowerValue: "NaN",
		settings.KeyUpperValue: "0.6",
		persist.KeyContainer:   "Person",
		persist.KeyComponent:   "geometry",
		persist.KeyParameter:   "smile",
	}, nil)
	r.Tick(tickDelta)

	if r.Phase() != Ready {
		t.Fatal("存档不可用时应以当前配置进入 Ready")
	}
	if !errors.Is(r.LastError(), persist.ErrMalformedValue) {
		t.Errorf("LastError() = %v, 期望 ErrMalformedValue", r.LastError())
	}

	selectSmile(t, r)
	if err := r.SetUpper(0.5); err != nil {
		t.Fatal(err)
	}
	for _, set := range []func(float64) error{r.SetLower, r.SetUpper, r.SetPeriod, r.SetQuickness} {
		if err := set(math.NaN()); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 60; i++ {
		r.Tick(tickDelta)
	}

	s := r.Settings.Snapshot()
	if !curve.IsFinite(s.Lower) || !curve.IsFinite(s.Upper) || s.Lower > s.Upper {
		t.Errorf("bounds = [%v, %v], 期望有限且 lower <= upper", s.Lower, s.Upper)
	}
	if !curve.IsFinite(s.Period) || !curve.IsFinite(s.Quickness) {
		t.Errorf("period = %v quickness = %v, 期望有限", s.Period, s.Quickness)
	}
	p, _ := dir.Param("Person", "geometry", "smile")
	if !curve.IsFinite(r.Value()) || !curve.IsFinite(p.Value()) {
		t.Errorf("value = %v target = %v, 期望有限", r.Value(), p.Value())
	}
}

// panicParam fail 为 true 时 SetValue panic 的参数
type panicParam struct {
	directory.Param
	fail bool
}

func (p *panicParam) SetValue(v float64) {
	if p.fail {
		panic("host parameter crashed")
	}
	p.Param.SetValue(v)
}

// panicDirectory 返回 panicParam 的目录
type panicDirectory struct {
	*directory.Memory
	param *panicParam
}

func (d *panicDirectory) NumericParameter(containerID, componentID, name string) (directory.NumericParameter, bool) {
	if _, ok := d.Memory.NumericParameter(containerID, componentID, name); !ok {
		return nil, false
	}
	return d.param, true
}

func TestTick_RecoversPanic(t *testing.T) {
	param := &panicParam{Param: *directory.NewParam(0.5, 0, 1), fail: true}
	dir := &panicDirectory{Memory: newTestDirectory(), param: param}
	r := New(testConfig(), dir)
	defer r.Close()
	r.Init()
	selectSmile(t, r)

	before := r.Scheduler().State()
	if r.Tick(tickDelta) {
		t.Error("panic 的 tick 应返回 false")
	}
	if r.LastError() == nil {
		t.Fatal("应记录 panic")
	}
	if got := r.Scheduler().State(); got != before {
		t.Errorf("panic 后调度器状态 = %+v, 期望回到 %+v", got, before)
	}
	if r.Scheduler().Rollovers() != 0 || r.Ticks() != 0 {
		t.Errorf("rollovers = %d ticks = %d, 期望都为 0", r.Scheduler().Rollovers(), r.Ticks())
	}

	// 宿主恢复后 tick 从同一状态继续
	param.fail = false
	if !r.Tick(tickDelta) {
		t.Fatal("宿主恢复后 tick 应推进")
	}
	if r.Scheduler().Rollovers() != 1 || r.Writes() != 1 {
		t.Errorf("rollovers = %d writes = %d, 期望 1, 1", r.Scheduler().Rollovers(), r.Writes())
	}
}

func TestSaveLoad(t *testing.T) {
	store := persist.NewStore(nil)
	dir := newTestDirectory()

	r1 := New(testConfig(), dir, WithStore(store))
	defer r1.Close()
	r1.Init()
	selectSmile(t, r1)
	_ = r1.SetPeriod(3)
	_ = r1.SetEnableRandomness(false)
	if err := r1.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	r2 := New(testConfig(), dir, WithStore(store), WithID(r1.ID()))
	defer r2.Close()
	ok, err := r2.Load()
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if r2.Settings.Period.Val() != 3 || r2.Settings.EnableRandomness.Val() {
		t.Errorf("settings = %+v", r2.Settings.Snapshot())
	}
	if r2.Resolver().Reference() != r1.Resolver().Reference() {
		t.Errorf("reference = %+v, 期望 %+v", r2.Resolver().Reference(), r1.Resolver().Reference())
	}

	r3 := New(testConfig(), dir, WithStore(store))
	defer r3.Close()
	if ok, err := r3.Load(); ok || err != nil {
		t.Errorf("新实例 Load = %v, %v, 期望不存在", ok, err)
	}
}

func TestInit_DefaultContainer(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultContainer = "Person"
	r := New(cfg, newTestDirectory())
	defer r.Close()
	r.Init()

	if r.Resolver().Selected(resolver.LevelContainer) != "Person" {
		t.Errorf("默认容器 = %q, 期望 Person", r.Resolver().Selected(resolver.LevelContainer))
	}

	cfg = testConfig()
	cfg.DefaultContainer = "Ghost"
	r2 := New(cfg, newTestDirectory())
	defer r2.Close()
	r2.Init()
	if r2.Phase() != Ready || r2.Resolver().Selected(resolver.LevelContainer) != "" {
		t.Error("默认容器不存在时应就绪且不选择")
	}
}

func TestCycleSelection(t *testing.T) {
	r := New(testConfig(), newTestDirectory())
	defer r.Close()
	r.Init()

	// 选项: None, Light, Person
	steps := []struct {
		delta int
		want  string
	}{
		{1, "Light"},
		{1, "Person"},
		{1, ""},
		{-1, "Person"},
	}
	for i, s := range steps {
		got, err := r.CycleSelection(resolver.LevelContainer, s.delta)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != s.want {
			t.Errorf("step %d: 选择 = %q, 期望 %q", i, got, s.want)
		}
	}
}

func TestToggleRandomness_InFlightSegmentUnchanged(t *testing.T) {
	r := New(testConfig(), newTestDirectory())
	defer r.Close()
	r.Init()
	_ = r.SetUpper(1)
	_ = r.SetPeriod(1)

	// 进入一个随机段的中途
	for i := 0; i < 90; i++ {
		r.Tick(tickDelta)
	}
	before := r.Scheduler().State()

	_ = r.SetEnableRandomness(false)
	r.Tick(tickDelta)
	after := r.Scheduler().State()

	if after.SegmentStart != before.SegmentStart || after.SegmentEnd != before.SegmentEnd {
		t.Errorf("段在翻转前被修改: %+v -> %+v", before, after)
	}
	if math.IsNaN(r.Value()) {
		t.Error("当前值不应为 NaN")
	}
}

func TestRestore_RebasesGroup(t *testing.T) {
	dirA := directory.NewMemory()
	dirA.AddParameter("StageA/Person", "geometry", "smile", directory.NewParam(0.3, 0, 1))
	dirB := directory.NewMemory()
	dirB.AddParameter("StageB/Person", "geometry", "smile", directory.NewParam(0.6, 0, 1))

	cfgA := testConfig()
	cfgA.Group = "StageA"
	r1 := New(cfgA, dirA)
	defer r1.Close()
	r1.Init()
	for level, id := range []string{"StageA/Person", "geometry", "smile"} {
		if err := r1.Select(resolver.Level(level), id); err != nil {
			t.Fatalf("select %s: %v", id, err)
		}
	}
	doc := r1.Snapshot()
	if doc[persist.KeyGroup] != "StageA" {
		t.Fatalf("存档分组 = %q, 期望 StageA", doc[persist.KeyGroup])
	}

	cfgB := testConfig()
	cfgB.Group = "StageB"
	r2 := New(cfgB, dirB)
	defer r2.Close()
	if err := r2.Restore(doc); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if got := r2.Resolver().Selected(resolver.LevelContainer); got != "StageB/Person" {
		t.Errorf("容器 = %q, 期望 StageB/Person", got)
	}
	if r2.Resolver().State(resolver.LevelParameter) != resolver.Resolved {
		t.Error("改写后的引用应解析成功")
	}
	if doc[persist.KeyContainer] != "StageA/Person" {
		t.Errorf("Restore 不应修改传入的存档, 容器 = %q", doc[persist.KeyContainer])
	}
}

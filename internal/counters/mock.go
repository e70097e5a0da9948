package counters

// mockGroup is the LLVM_ML_BENCH_MOCK implementation: it returns constant
// values instead of programming real PMU events, so unit tests can run
// anywhere (spec.md §4.1).
type mockGroup struct {
	cb Callback
}

// MockCycles, MockInstructions, etc. are the fixed values the mock group
// reports, chosen so measured = workload - noise == 0 when both sides run
// the mock (spec.md §8 scenario S3).
const (
	MockCycles          uint64 = 10
	MockInstructions    uint64 = 8
	MockL1DReadMisses   uint64 = 0
	MockContextSwitches uint64 = 0
	MockMicroOps        uint64 = 8
)

func newMockGroup(cb Callback) *mockGroup {
	return &mockGroup{cb: cb}
}

func (g *mockGroup) Start() error { return nil }
func (g *mockGroup) Stop() error  { return nil }

func (g *mockGroup) Flush() {
	if g.cb == nil {
		return
	}
	g.cb([]Sample{
		{Kind: Cycles, Value: MockCycles},
		{Kind: Instructions, Value: MockInstructions},
		{Kind: L1DReadMisses, Value: MockL1DReadMisses},
		{Kind: ContextSwitches, Value: MockContextSwitches},
		{Kind: MicroOps, Value: MockMicroOps},
	})
}

func (g *mockGroup) Close() error { return nil }
